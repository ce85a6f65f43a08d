package providerRepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookwell/database"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoProviderRepo implements ProviderRepository using MongoDB.
type MongoProviderRepo struct {
	providers *mongo.Collection
	owners    *mongo.Collection
	shops     *mongo.Collection
}

// NewMongoProviderRepo creates a new instance of ProviderRepository using MongoDB.
func NewMongoProviderRepo() ProviderRepository {
	db := database.DB()
	repo := &MongoProviderRepo{
		providers: db.Collection("providers"),
		owners:    db.Collection("shop_owners"),
		shops:     db.Collection("shops"),
	}
	if err := repo.ensureIndexes(); err != nil {
		fmt.Printf("failed to create provider indexes: %v\n", err)
	}
	return repo
}

func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, timeout)
}

// findOne decodes a single document, mapping a miss to ErrNotFound.
func findOne(ctx context.Context, coll *mongo.Collection, filter bson.M, out any) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := coll.FindOne(ctx, filter).Decode(out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// setRating writes a rating aggregate onto the document with the given id.
func setRating(ctx context.Context, coll *mongo.Collection, id string, average float64, count int) error {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	update := bson.M{"$set": bson.M{
		"rating":      average,
		"reviewCount": count,
		"updatedAt":   time.Now(),
	}}
	res, err := coll.UpdateOne(ctx, bson.M{"id": id}, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}
