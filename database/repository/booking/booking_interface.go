package bookingRepo

import (
	"context"
	"errors"
	"time"

	"bookwell/models"
)

var (
	// ErrNotFound is returned when no booking matches.
	ErrNotFound = errors.New("booking not found")
	// ErrVersionConflict is returned when a booking changed since it was read.
	ErrVersionConflict = errors.New("booking was modified concurrently")
)

// BookingFilter narrows List results. Zero values are ignored.
type BookingFilter struct {
	CustomerID string
	ProviderID string
	ShopID     string
	Statuses   []models.BookingStatus
	From       string // inclusive "YYYY-MM-DD"
	To         string // inclusive "YYYY-MM-DD"
	Page       int    // 1-based
	Size       int
	// Owner narrows the result to what a shop owner may see.
	Owner *OwnerScope
}

// OwnerScope matches bookings held by OwnerID or attached to ShopID, either
// as the booked shop or as the shop of the booked provider.
type OwnerScope struct {
	OwnerID string
	ShopID  string
}

// BookingRepository defines methods for booking data access. Every method
// takes the caller's context so it can join an open transaction.
type BookingRepository interface {
	// Create inserts a new booking and assigns its storage key.
	Create(ctx context.Context, booking *models.Booking) error
	// GetByPublicID retrieves a booking by its public identifier.
	GetByPublicID(ctx context.Context, publicID string) (*models.Booking, error)
	// Update replaces a booking if its version is unchanged and bumps the version.
	Update(ctx context.Context, booking *models.Booking) error
	// ListActiveBySlotKey returns active bookings on a capacity key for one date.
	ListActiveBySlotKey(ctx context.Context, slotKey, date string) ([]models.Booking, error)
	// ListActiveByProvider returns active bookings held by a provider on one date.
	ListActiveByProvider(ctx context.Context, providerID, date string) ([]models.Booking, error)
	// FindCustomerActiveAt returns the customer's active booking starting at the given time.
	FindCustomerActiveAt(ctx context.Context, customerID, date string, hour, minute int) (*models.Booking, error)
	// List returns a page of bookings and the total match count.
	List(ctx context.Context, filter BookingFilter) ([]models.Booking, int64, error)
	// FindUnassignedShopRequests returns pending shop-based bookings with no staff assigned created before cutoff.
	FindUnassignedShopRequests(ctx context.Context, createdBefore time.Time, limit int) ([]models.Booking, error)
	// FindStale returns bookings in one of statuses created before cutoff.
	FindStale(ctx context.Context, statuses []models.BookingStatus, createdBefore time.Time, limit int) ([]models.Booking, error)
	// ProviderRatingSummary aggregates ratings of a provider's completed bookings.
	ProviderRatingSummary(ctx context.Context, providerID string) (models.RatingSummary, error)
	// ShopRatingSummary aggregates ratings of a shop's completed bookings.
	ShopRatingSummary(ctx context.Context, shopID string) (models.RatingSummary, error)
	// LockSchedule serializes writers on one capacity key and date for the
	// lifetime of the surrounding transaction.
	LockSchedule(ctx context.Context, slotKey, date string) error
}
