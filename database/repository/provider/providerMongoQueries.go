package providerRepo

import (
	"context"
	"fmt"
	"time"

	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// GetByID retrieves a staff or freelancer registry entry.
func (r *MongoProviderRepo) GetByID(ctx context.Context, id string) (*models.Provider, error) {
	var provider models.Provider
	if err := findOne(ctx, r.providers, bson.M{"id": id}, &provider); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch provider with id %s: %w", id, err)
	}
	return &provider, nil
}

// ListShopStaff returns active staff of a shop ordered by name then id.
func (r *MongoProviderRepo) ListShopStaff(ctx context.Context, shopID string) ([]models.Provider, error) {
	ctx, cancel := withTimeout(ctx, 5*time.Second)
	defer cancel()

	filter := bson.M{"shopId": shopID, "kind": models.KindStaff, "active": true}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}, {Key: "id", Value: 1}})
	cursor, err := r.providers.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list staff of shop %s: %w", shopID, err)
	}
	defer cursor.Close(ctx)

	var staff []models.Provider
	if err := cursor.All(ctx, &staff); err != nil {
		return nil, fmt.Errorf("failed to decode staff: %w", err)
	}
	return staff, nil
}

// UpdateRating stores a provider's rating aggregate.
func (r *MongoProviderRepo) UpdateRating(ctx context.Context, id string, summary models.RatingSummary) error {
	if err := setRating(ctx, r.providers, id, summary.Average, summary.Count); err != nil {
		return fmt.Errorf("failed to update rating of provider %s: %w", id, err)
	}
	return nil
}

// GetShopOwner retrieves a shop owner profile.
func (r *MongoProviderRepo) GetShopOwner(ctx context.Context, id string) (*models.ShopOwner, error) {
	var owner models.ShopOwner
	if err := findOne(ctx, r.owners, bson.M{"id": id}, &owner); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch shop owner %s: %w", id, err)
	}
	return &owner, nil
}

// UpdateShopOwnerRating stores a shop owner's rating aggregate.
func (r *MongoProviderRepo) UpdateShopOwnerRating(ctx context.Context, id string, summary models.RatingSummary) error {
	if err := setRating(ctx, r.owners, id, summary.Average, summary.Count); err != nil {
		return fmt.Errorf("failed to update rating of shop owner %s: %w", id, err)
	}
	return nil
}
