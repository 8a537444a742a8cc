package database

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLSTATE codes of integrity violations
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
)

// Constraint names the integrity rule a write violated
type Constraint string

const (
	UniqueUsername        Constraint = "unique-username"
	UniqueEmail           Constraint = "unique-email"
	UniqueUserFeatureVote Constraint = "unique-user-feature-vote"
	ForeignKeyUser        Constraint = "foreign-key-user"
	ForeignKeyFeature     Constraint = "foreign-key-feature"
	CheckConstraint       Constraint = "check"
	UnknownConstraint     Constraint = "unknown"
)

// constraintNames maps schema constraint names (migrations/001_initial_schema.up.sql)
var constraintNames = map[string]Constraint{
	"users_username_key":      UniqueUsername,
	"users_email_key":         UniqueEmail,
	"uq_votes_user_feature":   UniqueUserFeatureVote,
	"votes_user_id_fkey":      ForeignKeyUser,
	"features_author_id_fkey": ForeignKeyUser,
	"votes_feature_id_fkey":   ForeignKeyFeature,
}

// ConstraintViolation is raised by repositories when the store rejects a write
type ConstraintViolation struct {
	Constraint Constraint
	Name       string // raw constraint name reported by PostgreSQL
	Err        error
}

func (e *ConstraintViolation) Error() string {
	return fmt.Sprintf("constraint violation %s (%s): %v", e.Constraint, e.Name, e.Err)
}

func (e *ConstraintViolation) Unwrap() error {
	return e.Err
}

// ClassifyError converts pgx and lib/pq integrity errors into *ConstraintViolation.
// Any other error is returned unchanged.
func ClassifyError(err error) error {
	if err == nil {
		return nil
	}

	var existing *ConstraintViolation
	if errors.As(err, &existing) {
		return err
	}

	var code, name string
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, name = pgErr.Code, pgErr.ConstraintName
	case errors.As(err, &pqErr):
		code, name = string(pqErr.Code), pqErr.Constraint
	default:
		return err
	}

	switch code {
	case codeUniqueViolation, codeForeignKeyViolation:
		c, ok := constraintNames[name]
		if !ok {
			c = UnknownConstraint
		}
		return &ConstraintViolation{Constraint: c, Name: name, Err: err}
	case codeCheckViolation, codeNotNullViolation:
		return &ConstraintViolation{Constraint: CheckConstraint, Name: name, Err: err}
	}
	return err
}

// AsConstraintViolation returns the violated constraint if err carries one
func AsConstraintViolation(err error) (Constraint, bool) {
	var cv *ConstraintViolation
	if errors.As(ClassifyError(err), &cv) {
		return cv.Constraint, true
	}
	return "", false
}
