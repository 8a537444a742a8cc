package model

import "errors"

var (
	ErrFeatureNotFound = errors.New("feature not found")
	ErrUserNotFound    = errors.New("user not found")
	ErrVoteNotFound    = errors.New("vote not found")
	ErrAlreadyVoted    = errors.New("user already voted for this feature")
)
