package repository

import (
	"context"

	"feature-voting-backend/internal/domains/feature/model"
)

// Repository is the persistence contract of the feature catalog.
// It never increments or decrements vote_count; that belongs to the vote ledger.
type Repository interface {
	// ========================================
	// COMMANDS
	// ========================================

	// Create inserts f with vote_count 0 and fills ID, VoteCount and CreatedAt
	Create(ctx context.Context, f *model.Feature) error
	Update(ctx context.Context, id int64, req model.UpdateFeatureRequest) (*model.Feature, error)
	Delete(ctx context.Context, id int64) error

	// ========================================
	// QUERIES
	// ========================================

	FindByID(ctx context.Context, id int64) (*model.Feature, error)

	// List returns one page ordered by vote_count DESC, id ASC and the total count
	List(ctx context.Context, offset, limit int) ([]model.Feature, int, error)
}
