package model

import "errors"

var (
	ErrFeatureNotFound = errors.New("feature not found")
)
