package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog/log"

	featuremodel "feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/domains/user/model"
	"feature-voting-backend/internal/domains/user/repository"
	"feature-voting-backend/internal/infrastructure/database"
	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/pagination"
	"feature-voting-backend/pkg/cache"
)

type userService struct {
	repo  repository.Repository
	cache cache.Cache
}

func NewUserService(repo repository.Repository, c cache.Cache) ServiceInterface {
	if c == nil {
		c = cache.Noop{}
	}
	return &userService{repo: repo, cache: c}
}

// =====================================================
// CREATE USER
// =====================================================

func (s *userService) CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error) {
	// Step 1: Normalize + validate
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// Step 2: Insert; uniqueness is decided by the store
	u := &model.User{Username: req.Username, Email: req.Email}
	if err := s.repo.Create(ctx, u); err != nil {
		if c, ok := database.AsConstraintViolation(err); ok {
			switch c {
			case database.UniqueUsername:
				return nil, apperror.NewFieldError("username", "Username already exists")
			case database.UniqueEmail:
				return nil, apperror.NewFieldError("email", "Email already registered")
			default:
				return nil, apperror.NewConstraintViolation(err)
			}
		}
		return nil, apperror.NewUnexpected(err)
	}

	log.Info().Int64("user_id", u.ID).Str("username", u.Username).Msg("User created")
	return u, nil
}

// =====================================================
// QUERIES
// =====================================================

func (s *userService) GetUser(ctx context.Context, id int64) (*model.User, error) {
	u, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return nil, apperror.NewUserNotFound(id)
	}
	if err != nil {
		return nil, apperror.NewUnexpected(err)
	}
	return u, nil
}

func (s *userService) ListUsers(ctx context.Context, window pagination.Window) ([]model.User, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}
	users, err := s.repo.List(ctx, window.Skip, window.Limit)
	if err != nil {
		return nil, apperror.NewUnexpected(err)
	}
	return users, nil
}

func (s *userService) Exists(ctx context.Context, id int64) (bool, error) {
	exists, err := s.repo.Exists(ctx, id)
	if err != nil {
		return false, apperror.NewUnexpected(err)
	}
	return exists, nil
}

// =====================================================
// DELETE USER
// =====================================================

func (s *userService) DeleteUser(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, model.ErrUserNotFound) {
		return apperror.NewUserNotFound(id)
	}
	if err != nil {
		if _, ok := database.AsConstraintViolation(err); ok {
			return apperror.NewConstraintViolation(err)
		}
		return apperror.NewUnexpected(err)
	}

	// Deleting a user can move many counters and remove authored features
	if err := s.cache.DeletePattern(ctx, featuremodel.CacheKeyPattern); err != nil {
		log.Warn().Err(err).Int64("user_id", id).Msg("Failed to invalidate feature cache")
	}

	log.Info().Int64("user_id", id).Msg("User deleted")
	return nil
}
