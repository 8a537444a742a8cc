package model

import (
	"fmt"
	"time"
)

// Feature is a requested product feature. VoteCount mirrors the number of
// vote rows referencing the feature and is maintained by the vote ledger.
type Feature struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	AuthorID    int64     `json:"author_id"`
	VoteCount   int       `json:"vote_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// CacheKeyPattern matches every cached feature
const CacheKeyPattern = "feature:*"

func CacheKey(id int64) string {
	return fmt.Sprintf("feature:%d", id)
}
