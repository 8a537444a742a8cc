package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/vote/model"
	"feature-voting-backend/internal/domains/vote/repository"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/metrics"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/pkg/cache"
)

type voteService struct {
	ledger   repository.Ledger
	cache    cache.Cache
	recorder Recorder
}

type noopRecorder struct{}

func (noopRecorder) ObserveVote(string, string) {}

func NewVoteService(ledger repository.Ledger, c cache.Cache, recorder Recorder) ServiceInterface {
	if c == nil {
		c = cache.Noop{}
	}
	if recorder == nil {
		recorder = noopRecorder{}
	}
	return &voteService{ledger: ledger, cache: c, recorder: recorder}
}

// =====================================================
// CAST / RETRACT
// =====================================================

func (s *voteService) CastVote(ctx context.Context, userID, featureID int64) (*model.Result, error) {
	if err := validateIDs(map[string]int64{"user_id": userID, "feature_id": featureID}); err != nil {
		return nil, err
	}

	result, err := s.ledger.Cast(ctx, userID, featureID)
	if err != nil {
		appErr := classify(err, userID, featureID)
		s.recorder.ObserveVote(metrics.OpCast, appErr.Kind.Code())
		return nil, appErr
	}

	s.recorder.ObserveVote(metrics.OpCast, metrics.OutcomeSuccess)
	s.invalidate(ctx, featureID)

	log.Info().
		Int64("user_id", userID).
		Int64("feature_id", featureID).
		Int("vote_count", result.VoteCount).
		Msg("Vote cast")
	return result, nil
}

func (s *voteService) RetractVote(ctx context.Context, userID, featureID int64) (*model.Result, error) {
	if err := validateIDs(map[string]int64{"user_id": userID, "feature_id": featureID}); err != nil {
		return nil, err
	}

	result, err := s.ledger.Retract(ctx, userID, featureID)
	if err != nil {
		appErr := classify(err, userID, featureID)
		s.recorder.ObserveVote(metrics.OpRetract, appErr.Kind.Code())
		return nil, appErr
	}

	s.recorder.ObserveVote(metrics.OpRetract, metrics.OutcomeSuccess)
	s.invalidate(ctx, featureID)

	log.Info().
		Int64("user_id", userID).
		Int64("feature_id", featureID).
		Int("vote_count", result.VoteCount).
		Msg("Vote retracted")
	return result, nil
}

func (s *voteService) RetractVoteByID(ctx context.Context, userID, voteID int64) (*model.Result, error) {
	if err := validateIDs(map[string]int64{"user_id": userID, "vote_id": voteID}); err != nil {
		return nil, err
	}

	result, err := s.ledger.RetractByID(ctx, userID, voteID)
	if err != nil {
		appErr := classify(err, userID, 0)
		s.recorder.ObserveVote(metrics.OpRetract, appErr.Kind.Code())
		return nil, appErr
	}

	s.recorder.ObserveVote(metrics.OpRetract, metrics.OutcomeSuccess)
	s.invalidate(ctx, result.Vote.FeatureID)

	log.Info().
		Int64("user_id", userID).
		Int64("vote_id", voteID).
		Int64("feature_id", result.Vote.FeatureID).
		Int("vote_count", result.VoteCount).
		Msg("Vote retracted by id")
	return result, nil
}

// =====================================================
// RECOUNT
// =====================================================

func (s *voteService) RecountVotes(ctx context.Context, featureID int64) (*model.Recount, error) {
	if err := validateIDs(map[string]int64{"feature_id": featureID}); err != nil {
		return nil, err
	}

	recount, err := s.ledger.Recount(ctx, featureID)
	if err != nil {
		appErr := classify(err, 0, featureID)
		s.recorder.ObserveVote(metrics.OpRecount, appErr.Kind.Code())
		return nil, appErr
	}

	s.recorder.ObserveVote(metrics.OpRecount, metrics.OutcomeSuccess)
	s.invalidate(ctx, featureID)

	if recount.Drifted() {
		log.Warn().
			Int64("feature_id", featureID).
			Int("previous", recount.Previous).
			Int("vote_count", recount.VoteCount).
			Msg("Vote count repaired")
	}
	return recount, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *voteService) ListVotes(ctx context.Context, window pagination.Window) ([]model.Vote, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	votes, err := s.ledger.List(ctx, window.Skip, window.Limit)
	if err != nil {
		return nil, apperror.NewUnexpected(err)
	}
	return votes, nil
}

func (s *voteService) ListFeatureVotes(ctx context.Context, featureID int64) ([]model.Vote, error) {
	votes, err := s.ledger.ListByFeature(ctx, featureID)
	if err != nil {
		return nil, classify(err, 0, featureID)
	}
	return votes, nil
}

// =====================================================
// HELPERS
// =====================================================

func (s *voteService) invalidate(ctx context.Context, featureID int64) {
	if err := s.cache.Delete(ctx, featuremodel.CacheKey(featureID)); err != nil {
		log.Warn().Err(err).Int64("feature_id", featureID).Msg("Failed to invalidate feature cache")
	}
}

func validateIDs(ids map[string]int64) error {
	fields := map[string]string{}
	for name, id := range ids {
		if id <= 0 {
			fields[name] = "must be a positive integer"
		}
	}
	if len(fields) > 0 {
		return apperror.NewValidation(fields)
	}
	return nil
}

// classify maps ledger and store errors onto the taxonomy.
// A unique violation on the vote pair is the race loser of a concurrent cast.
func classify(err error, userID, featureID int64) *apperror.Error {
	switch {
	case errors.Is(err, model.ErrFeatureNotFound):
		return apperror.NewFeatureNotFound(featureID)
	case errors.Is(err, model.ErrUserNotFound):
		return apperror.NewUserNotFound(userID)
	case errors.Is(err, model.ErrAlreadyVoted):
		return apperror.NewDuplicateVote(userID, featureID)
	case errors.Is(err, model.ErrVoteNotFound):
		if featureID > 0 {
			return apperror.NewVoteNotFound(fmt.Sprintf("User %d has not voted for feature %d", userID, featureID))
		}
		return apperror.NewVoteNotFound("Vote not found")
	}

	if c, ok := database.AsConstraintViolation(err); ok {
		switch c {
		case database.UniqueUserFeatureVote:
			return apperror.NewDuplicateVote(userID, featureID)
		case database.ForeignKeyUser:
			return apperror.NewUserNotFound(userID)
		case database.ForeignKeyFeature:
			return apperror.NewFeatureNotFound(featureID)
		default:
			return apperror.NewConstraintViolation(err)
		}
	}
	return apperror.NewUnexpected(err)
}
