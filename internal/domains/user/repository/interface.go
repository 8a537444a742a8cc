package repository

import (
	"context"

	"feature-voting-backend/internal/domains/user/model"
)

// Repository is the persistence contract of the user registry.
// Unique violations surface as *database.ConstraintViolation.
type Repository interface {
	// Create inserts u and fills ID and CreatedAt
	Create(ctx context.Context, u *model.User) error

	// FindByID returns model.ErrUserNotFound when absent
	FindByID(ctx context.Context, id int64) (*model.User, error)

	List(ctx context.Context, skip, limit int) ([]model.User, error)

	Exists(ctx context.Context, id int64) (bool, error)

	// Delete removes the user together with their votes and authored features.
	// Vote counters of surviving features are decremented in the same transaction.
	Delete(ctx context.Context, id int64) error
}
