package providerRepo

import (
	"context"
	"errors"

	"bookwell/models"
)

// ErrNotFound is returned when no provider, owner or shop matches.
var ErrNotFound = errors.New("not found")

// ProviderRepository defines read access to the provider registry, shop
// owners and shops, plus the rating fields the booking engine maintains.
type ProviderRepository interface {
	// GetByID retrieves a staff or freelancer registry entry.
	GetByID(ctx context.Context, id string) (*models.Provider, error)
	// ListShopStaff returns active staff of a shop ordered by name then id.
	ListShopStaff(ctx context.Context, shopID string) ([]models.Provider, error)
	// UpdateRating stores a provider's rating aggregate.
	UpdateRating(ctx context.Context, id string, summary models.RatingSummary) error

	// GetShopOwner retrieves a shop owner profile.
	GetShopOwner(ctx context.Context, id string) (*models.ShopOwner, error)
	// UpdateShopOwnerRating stores a shop owner's rating aggregate.
	UpdateShopOwnerRating(ctx context.Context, id string, summary models.RatingSummary) error

	// GetShop retrieves a shop by ID.
	GetShop(ctx context.Context, id string) (*models.Shop, error)
	// GetShopByOwner retrieves the shop owned by ownerID.
	GetShopByOwner(ctx context.Context, ownerID string) (*models.Shop, error)
	// UpdateShopRating stores a shop's rating aggregate.
	UpdateShopRating(ctx context.Context, id string, summary models.RatingSummary) error
}
