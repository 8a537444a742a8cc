package service

import (
	"context"

	"feature-voting-backend/internal/domains/vote/model"
	"feature-voting-backend/internal/shared/pagination"
)

type ServiceInterface interface {
	CastVote(ctx context.Context, userID, featureID int64) (*model.Result, error)
	RetractVote(ctx context.Context, userID, featureID int64) (*model.Result, error)
	RetractVoteByID(ctx context.Context, userID, voteID int64) (*model.Result, error)
	RecountVotes(ctx context.Context, featureID int64) (*model.Recount, error)

	ListVotes(ctx context.Context, window pagination.Window) ([]model.Vote, error)
	ListFeatureVotes(ctx context.Context, featureID int64) ([]model.Vote, error)
}

// Recorder receives one observation per ledger mutation
type Recorder interface {
	ObserveVote(operation, outcome string)
}
