// Package apperror defines the error taxonomy shared by every domain.
// Services return *Error values, and the HTTP boundary maps Kind to a status
// code exactly once.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an application error
type Kind int

const (
	Unexpected Kind = iota
	Unauthenticated
	InvalidIdentity
	UnknownUser
	Validation
	FeatureNotFound
	UserNotFound
	VoteNotFound
	DuplicateVote
	ConstraintViolation
	Forbidden
)

type kindInfo struct {
	code   string
	status int
}

var kinds = map[Kind]kindInfo{
	Unexpected:          {"UNEXPECTED_ERROR", http.StatusInternalServerError},
	Unauthenticated:     {"UNAUTHENTICATED", http.StatusUnauthorized},
	InvalidIdentity:     {"INVALID_IDENTITY", http.StatusBadRequest},
	UnknownUser:         {"UNKNOWN_USER", http.StatusNotFound},
	Validation:          {"VALIDATION_ERROR", http.StatusUnprocessableEntity},
	FeatureNotFound:     {"FEATURE_NOT_FOUND", http.StatusNotFound},
	UserNotFound:        {"USER_NOT_FOUND", http.StatusNotFound},
	VoteNotFound:        {"VOTE_NOT_FOUND", http.StatusNotFound},
	DuplicateVote:       {"DUPLICATE_VOTE", http.StatusConflict},
	ConstraintViolation: {"CONSTRAINT_VIOLATION", http.StatusInternalServerError},
	Forbidden:           {"FORBIDDEN", http.StatusForbidden},
}

// Code is the stable machine-readable code of the kind
func (k Kind) Code() string {
	if info, ok := kinds[k]; ok {
		return info.code
	}
	return kinds[Unexpected].code
}

// Status is the HTTP status the kind maps to
func (k Kind) Status() int {
	if info, ok := kinds[k]; ok {
		return info.status
	}
	return http.StatusInternalServerError
}

func (k Kind) String() string {
	return k.Code()
}

// Error is the tagged application error
type Error struct {
	Kind    Kind
	Message string
	// Fields lists field-level problems of a Validation error (field -> message)
	Fields map[string]string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind.Code(), e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind.Code(), e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error of the same Kind, so errors.Is(err, apperror.New(k, "")) works
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind && (t.Message == "" || t.Message == e.Message)
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// As extracts the *Error from err. Errors outside the taxonomy become Unexpected.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return &Error{Kind: Unexpected, Message: "An unexpected error occurred", Err: err}
}

// KindOf returns the Kind of err, Unexpected for foreign errors
func KindOf(err error) Kind {
	return As(err).Kind
}

// IsKind reports whether err carries the given kind
func IsKind(err error, kind Kind) bool {
	var appErr *Error
	return errors.As(err, &appErr) && appErr.Kind == kind
}
