package providerRepo

import (
	"context"
	"fmt"

	"bookwell/models"

	"go.mongodb.org/mongo-driver/bson"
)

// GetShop retrieves a shop by ID.
func (r *MongoProviderRepo) GetShop(ctx context.Context, id string) (*models.Shop, error) {
	var shop models.Shop
	if err := findOne(ctx, r.shops, bson.M{"id": id}, &shop); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch shop %s: %w", id, err)
	}
	return &shop, nil
}

// GetShopByOwner retrieves the shop owned by ownerID.
func (r *MongoProviderRepo) GetShopByOwner(ctx context.Context, ownerID string) (*models.Shop, error) {
	var shop models.Shop
	if err := findOne(ctx, r.shops, bson.M{"ownerId": ownerID}, &shop); err != nil {
		if err == ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to fetch shop of owner %s: %w", ownerID, err)
	}
	return &shop, nil
}

// UpdateShopRating stores a shop's rating aggregate.
func (r *MongoProviderRepo) UpdateShopRating(ctx context.Context, id string, summary models.RatingSummary) error {
	if err := setRating(ctx, r.shops, id, summary.Average, summary.Count); err != nil {
		return fmt.Errorf("failed to update rating of shop %s: %w", id, err)
	}
	return nil
}
