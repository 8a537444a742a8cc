package service

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"

	"feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/feature/repository"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/pkg/cache"
)

const DefaultCacheTTL = 30 * time.Second

type featureService struct {
	repo     repository.Repository
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewFeatureService(repo repository.Repository, c cache.Cache, ttl time.Duration) ServiceInterface {
	if c == nil {
		c = cache.Noop{}
	}
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &featureService{repo: repo, cache: c, cacheTTL: ttl}
}

// =====================================================
// CREATE FEATURE
// =====================================================

func (s *featureService) CreateFeature(ctx context.Context, authorID int64, req model.CreateFeatureRequest) (*model.Feature, error) {
	// Step 1: Normalize + validate all fields
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Insert with vote_count = 0; unknown author fails on the FK
	f := &model.Feature{
		Title:       req.Title,
		Description: req.Description,
		AuthorID:    authorID,
	}
	if err := s.repo.Create(ctx, f); err != nil {
		return nil, mapStoreError(err, f.ID, authorID)
	}

	log.Info().Int64("feature_id", f.ID).Int64("author_id", authorID).Msg("Feature created")
	return f, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *featureService) GetFeature(ctx context.Context, id int64) (*model.Feature, error) {
	key := model.CacheKey(id)

	var cached model.Feature
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Feature cache read failed")
	}
	if found {
		return &cached, nil
	}

	f, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, mapStoreError(err, id, 0)
	}

	if err := s.cache.Set(ctx, key, f, s.cacheTTL); err != nil {
		log.Debug().Err(err).Str("key", key).Msg("Feature cache write failed")
	}
	return f, nil
}

func (s *featureService) ListFeatures(ctx context.Context, params pagination.Params) (*pagination.Page[model.Feature], error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}

	items, total, err := s.repo.List(ctx, params.Offset(), params.PageSize)
	if err != nil {
		return nil, apperror.NewUnexpected(err)
	}

	page := pagination.NewPage(items, total, params)
	return &page, nil
}

// =====================================================
// UPDATE / DELETE
// =====================================================

func (s *featureService) UpdateFeature(ctx context.Context, id int64, req model.UpdateFeatureRequest) (*model.Feature, error) {
	// Step 1: Normalize + validate supplied fields
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Nothing supplied - return current state
	if req.IsEmpty() {
		return s.GetFeature(ctx, id)
	}

	// Step 3: Persist
	f, err := s.repo.Update(ctx, id, req)
	if err != nil {
		return nil, mapStoreError(err, id, 0)
	}
	s.invalidate(ctx, id)

	if req.VoteCount != nil {
		log.Warn().Int64("feature_id", id).Int("vote_count", *req.VoteCount).Msg("Vote count overwritten by update")
	}
	return f, nil
}

func (s *featureService) DeleteFeature(ctx context.Context, id int64) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return mapStoreError(err, id, 0)
	}
	s.invalidate(ctx, id)

	log.Info().Int64("feature_id", id).Msg("Feature deleted")
	return nil
}

func (s *featureService) invalidate(ctx context.Context, id int64) {
	if err := s.cache.Delete(ctx, model.CacheKey(id)); err != nil {
		log.Warn().Err(err).Int64("feature_id", id).Msg("Failed to invalidate feature cache")
	}
}

// mapStoreError converts repository errors into the taxonomy
func mapStoreError(err error, featureID, authorID int64) error {
	if errors.Is(err, model.ErrFeatureNotFound) {
		return apperror.NewFeatureNotFound(featureID)
	}
	if c, ok := database.AsConstraintViolation(err); ok {
		if c == database.ForeignKeyUser {
			return apperror.NewUserNotFound(authorID)
		}
		return apperror.NewConstraintViolation(err)
	}
	return apperror.NewUnexpected(err)
}
