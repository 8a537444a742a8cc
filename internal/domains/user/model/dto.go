package model

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"feature-voting-backend/internal/shared/apperror"
)

const (
	UsernameMinLength = 2
	EmailMaxLength    = 255
)

// =====================================================
// REQUEST DTOs
// =====================================================

type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// Normalize trims both fields and lowercases the email
func (r *CreateUserRequest) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.ToLower(strings.TrimSpace(r.Email))
}

// Validate reports every failing field at once
func (r CreateUserRequest) Validate() error {
	return apperror.FromValidation(validation.ValidateStruct(&r,
		validation.Field(&r.Username,
			validation.Required,
			validation.RuneLength(UsernameMinLength, 0),
		),
		validation.Field(&r.Email,
			validation.Required,
			validation.By(containsAt),
			is.EmailFormat,
			validation.RuneLength(0, EmailMaxLength),
		),
	))
}

func containsAt(value interface{}) error {
	s, _ := value.(string)
	if !strings.Contains(s, "@") {
		return validation.NewError("validation_email_at", "must contain @")
	}
	return nil
}
