package model

import "time"

// Vote records that a user supports a feature. Votes are inserted or deleted, never updated.
type Vote struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	FeatureID int64     `json:"feature_id"`
	CreatedAt time.Time `json:"created_at"`
}

// Result is the outcome of a cast or retract
type Result struct {
	Vote      Vote `json:"-"`
	VoteCount int  `json:"vote_count"`
}

// Recount is the outcome of recomputing a feature counter from the vote rows
type Recount struct {
	FeatureID int64 `json:"feature_id"`
	Previous  int   `json:"previous"`
	VoteCount int   `json:"vote_count"`
}

// Drifted reports whether the stored counter disagreed with the vote rows
func (r Recount) Drifted() bool {
	return r.Previous != r.VoteCount
}
