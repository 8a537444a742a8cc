package repository

import (
	"context"

	"feature-voting-backend/internal/domains/vote/model"
)

// Ledger is the only writer that moves features.vote_count up or down.
// Every mutation runs in one transaction: the vote row and the counter change
// commit together or not at all.
type Ledger interface {
	// ========================================
	// MUTATIONS
	// ========================================

	// Cast inserts the vote and increments the counter.
	// Errors: model.ErrFeatureNotFound, model.ErrUserNotFound, model.ErrAlreadyVoted,
	// or *database.ConstraintViolation when the store rejects the insert.
	Cast(ctx context.Context, userID, featureID int64) (*model.Result, error)

	// Retract deletes the vote and decrements the counter, floored at zero.
	// Errors: model.ErrFeatureNotFound, model.ErrVoteNotFound.
	Retract(ctx context.Context, userID, featureID int64) (*model.Result, error)

	// RetractByID retracts a vote by id; the vote must belong to userID
	RetractByID(ctx context.Context, userID, voteID int64) (*model.Result, error)

	// Recount sets vote_count to the number of vote rows
	Recount(ctx context.Context, featureID int64) (*model.Recount, error)

	// ========================================
	// QUERIES
	// ========================================

	List(ctx context.Context, skip, limit int) ([]model.Vote, error)

	// ListByFeature returns model.ErrFeatureNotFound for an unknown feature
	ListByFeature(ctx context.Context, featureID int64) ([]model.Vote, error)
}
