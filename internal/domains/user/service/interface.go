package service

import (
	"context"

	"feature-voting-backend/internal/domains/user/model"
	"feature-voting-backend/internal/shared/pagination"
)

type ServiceInterface interface {
	CreateUser(ctx context.Context, req model.CreateUserRequest) (*model.User, error)
	GetUser(ctx context.Context, id int64) (*model.User, error)
	ListUsers(ctx context.Context, window pagination.Window) ([]model.User, error)
	DeleteUser(ctx context.Context, id int64) error

	// Exists backs the identity middleware when user verification is enabled
	Exists(ctx context.Context, id int64) (bool, error)
}
