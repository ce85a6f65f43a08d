package providerRepo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ensureIndexes creates indexes for frequently used fields in queries.
func (r *MongoProviderRepo) ensureIndexes() error {
	ctx, cancel := withTimeout(context.Background(), 10*time.Second)
	defer cancel()

	providerIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "shopId", Value: 1}, {Key: "kind", Value: 1}, {Key: "active", Value: 1}, {Key: "name", Value: 1}}},
	}
	if _, err := r.providers.Indexes().CreateMany(ctx, providerIdx); err != nil {
		return fmt.Errorf("failed to create provider indexes: %w", err)
	}

	ownerIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
	}
	if _, err := r.owners.Indexes().CreateMany(ctx, ownerIdx); err != nil {
		return fmt.Errorf("failed to create shop owner indexes: %w", err)
	}

	shopIdx := []mongo.IndexModel{
		{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "ownerId", Value: 1}}},
		{Keys: bson.D{{Key: "location", Value: "2dsphere"}}},
	}
	if _, err := r.shops.Indexes().CreateMany(ctx, shopIdx); err != nil {
		return fmt.Errorf("failed to create shop indexes: %w", err)
	}
	return nil
}
