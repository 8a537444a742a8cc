package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"feature-voting-backend/internal/shared/apperror"
	"feature-voting-backend/internal/shared/utils"
)

const (
	TitleMinLength       = 3
	TitleMaxLength       = 100
	DescriptionMinLength = 10
	DescriptionMaxLength = 1000
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateFeatureRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (r *CreateFeatureRequest) Normalize() {
	r.Title = strings.TrimSpace(r.Title)
	r.Description = strings.TrimSpace(r.Description)
}

func (r CreateFeatureRequest) Validate() error {
	return apperror.FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.Required,
			validation.RuneLength(TitleMinLength, TitleMaxLength),
		),
		validation.Field(&r.Description,
			validation.Required,
			validation.RuneLength(DescriptionMinLength, DescriptionMaxLength),
		),
	))
}

// UpdateFeatureRequest is a partial update: nil fields are left unchanged.
// VoteCount overwrites the counter directly (administrative override).
type UpdateFeatureRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	VoteCount   *int    `json:"vote_count,omitempty"`
}

func (r *UpdateFeatureRequest) Normalize() {
	utils.TrimPtr(r.Title)
	utils.TrimPtr(r.Description)
}

func (r UpdateFeatureRequest) Validate() error {
	return apperror.FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Title,
			validation.NilOrNotEmpty,
			validation.RuneLength(TitleMinLength, TitleMaxLength),
		),
		validation.Field(&r.Description,
			validation.NilOrNotEmpty,
			validation.RuneLength(DescriptionMinLength, DescriptionMaxLength),
		),
		validation.Field(&r.VoteCount, validation.Min(0)),
	))
}

// IsEmpty reports an update that changes nothing
func (r UpdateFeatureRequest) IsEmpty() bool {
	return r.Title == nil && r.Description == nil && r.VoteCount == nil
}
