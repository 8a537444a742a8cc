package service

import (
	"context"

	"feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/shared/pagination"
)

type ServiceInterface interface {
	CreateFeature(ctx context.Context, authorID int64, req model.CreateFeatureRequest) (*model.Feature, error)
	GetFeature(ctx context.Context, id int64) (*model.Feature, error)
	ListFeatures(ctx context.Context, params pagination.Params) (*pagination.Page[model.Feature], error)
	UpdateFeature(ctx context.Context, id int64, req model.UpdateFeatureRequest) (*model.Feature, error)
	DeleteFeature(ctx context.Context, id int64) error
}
