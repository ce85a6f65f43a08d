package userRepo

import (
	"context"
	"errors"

	"bookwell/models"
)

// ErrNotFound is returned when no customer matches.
var ErrNotFound = errors.New("customer not found")

// UserRepository defines methods for customer data access.
type UserRepository interface {
	// GetByID retrieves a customer by its unique ID.
	GetByID(ctx context.Context, id string) (*models.Customer, error)
}
