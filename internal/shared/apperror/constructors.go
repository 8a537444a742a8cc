package apperror

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func NewUnauthenticated(message string) *Error {
	return New(Unauthenticated, message)
}

func NewInvalidIdentity(raw string) *Error {
	return New(InvalidIdentity, fmt.Sprintf("Invalid user identity: %q", raw))
}

func NewForbidden(message string) *Error {
	return New(Forbidden, message)
}

func NewUnknownUser(userID int64) *Error {
	return New(UnknownUser, fmt.Sprintf("User with id %d is not registered", userID))
}

func NewFeatureNotFound(featureID int64) *Error {
	return New(FeatureNotFound, fmt.Sprintf("Feature with id %d not found", featureID))
}

func NewUserNotFound(userID int64) *Error {
	return New(UserNotFound, fmt.Sprintf("User with id %d not found", userID))
}

func NewVoteNotFound(message string) *Error {
	return New(VoteNotFound, message)
}

func NewDuplicateVote(userID, featureID int64) *Error {
	return New(DuplicateVote, fmt.Sprintf("User %d has already voted for feature %d", userID, featureID))
}

func NewConstraintViolation(err error) *Error {
	return Wrap(ConstraintViolation, "Database constraint violation", err)
}

func NewUnexpected(err error) *Error {
	return Wrap(Unexpected, "An unexpected error occurred", err)
}

// NewValidation builds a Validation error naming every failing field
func NewValidation(fields map[string]string) *Error {
	return &Error{Kind: Validation, Message: validationMessage(fields), Fields: fields}
}

// NewFieldError is a Validation error on a single field
func NewFieldError(field, message string) *Error {
	return NewValidation(map[string]string{field: message})
}

// FromValidation converts ozzo-validation results into a Validation error.
// Internal rule errors (misconfigured rules) are reported as Unexpected.
func FromValidation(err error) error {
	if err == nil {
		return nil
	}

	var internal validation.InternalError
	if errors.As(err, &internal) {
		return NewUnexpected(err)
	}

	var verrs validation.Errors
	if !errors.As(err, &verrs) {
		return NewFieldError("body", err.Error())
	}

	fields := make(map[string]string, len(verrs))
	flatten("", verrs, fields)
	return NewValidation(fields)
}

func flatten(prefix string, verrs validation.Errors, out map[string]string) {
	for field, err := range verrs {
		key := field
		if prefix != "" {
			key = prefix + "." + field
		}
		var nested validation.Errors
		if errors.As(err, &nested) {
			flatten(key, nested, out)
			continue
		}
		out[key] = err.Error()
	}
}

func validationMessage(fields map[string]string) string {
	if len(fields) == 0 {
		return "Validation failed"
	}
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	return "Validation failed: " + strings.Join(names, ", ")
}
