package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feature-voting-backend/internal/domains/vote/model"
	"feature-voting-backend/internal/infrastructure/database"
)

// Lock order for every ledger transaction: user row (key share), then feature row.
// User deletion takes the same order, so the two never deadlock.

type postgresLedger struct {
	db *database.PostgresDB
}

func NewPostgresLedger(db *database.PostgresDB) Ledger {
	return &postgresLedger{db: db}
}

// ========================================
// TX STEPS
// ========================================

// featureExists is an unlocked probe so a missing feature is reported before a missing user
func featureExists(ctx context.Context, tx pgx.Tx, featureID int64) error {
	var exists bool
	err := tx.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM features WHERE id = $1)`, featureID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check feature %d: %w", featureID, err)
	}
	if !exists {
		return model.ErrFeatureNotFound
	}
	return nil
}

func lockUser(ctx context.Context, tx pgx.Tx, userID int64) error {
	var id int64
	err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR KEY SHARE`, userID).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return model.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("lock user %d: %w", userID, err)
	}
	return nil
}

// lockFeature serializes all ledger writes on the feature (pessimistic lock)
func lockFeature(ctx context.Context, tx pgx.Tx, featureID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `SELECT vote_count FROM features WHERE id = $1 FOR UPDATE`, featureID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrFeatureNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("lock feature %d: %w", featureID, err)
	}
	return count, nil
}

func increment(ctx context.Context, tx pgx.Tx, featureID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE features SET vote_count = vote_count + 1
		WHERE id = $1
		RETURNING vote_count
	`, featureID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("increment feature %d: %w", featureID, database.ClassifyError(err))
	}
	return count, nil
}

func decrement(ctx context.Context, tx pgx.Tx, featureID int64) (int, error) {
	var count int
	err := tx.QueryRow(ctx, `
		UPDATE features SET vote_count = GREATEST(vote_count - 1, 0)
		WHERE id = $1
		RETURNING vote_count
	`, featureID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("decrement feature %d: %w", featureID, err)
	}
	return count, nil
}

// ========================================
// MUTATIONS
// ========================================

func (r *postgresLedger) Cast(ctx context.Context, userID, featureID int64) (*model.Result, error) {
	var result model.Result

	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		if err := featureExists(ctx, tx, featureID); err != nil {
			return err
		}
		if err := lockUser(ctx, tx, userID); err != nil {
			return err
		}
		// Deleted after the probe: still FeatureNotFound
		if _, err := lockFeature(ctx, tx, featureID); err != nil {
			return err
		}

		// Advisory: under the feature lock this sees any committed vote for the pair
		var exists bool
		if err := tx.QueryRow(ctx,
			`SELECT EXISTS(SELECT 1 FROM votes WHERE user_id = $1 AND feature_id = $2)`,
			userID, featureID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("check vote: %w", err)
		}
		if exists {
			return model.ErrAlreadyVoted
		}

		// Authoritative: uq_votes_user_feature
		err := tx.QueryRow(ctx, `
			INSERT INTO votes (user_id, feature_id)
			VALUES ($1, $2)
			RETURNING id, user_id, feature_id, created_at
		`, userID, featureID).Scan(&result.Vote.ID, &result.Vote.UserID, &result.Vote.FeatureID, &result.Vote.CreatedAt)
		if err != nil {
			return fmt.Errorf("insert vote: %w", database.ClassifyError(err))
		}

		result.VoteCount, err = increment(ctx, tx, featureID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *postgresLedger) Retract(ctx context.Context, userID, featureID int64) (*model.Result, error) {
	var result model.Result

	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		if _, err := lockFeature(ctx, tx, featureID); err != nil {
			return err
		}

		err := tx.QueryRow(ctx, `
			DELETE FROM votes
			WHERE user_id = $1 AND feature_id = $2
			RETURNING id, user_id, feature_id, created_at
		`, userID, featureID).Scan(&result.Vote.ID, &result.Vote.UserID, &result.Vote.FeatureID, &result.Vote.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVoteNotFound
		}
		if err != nil {
			return fmt.Errorf("delete vote: %w", err)
		}

		result.VoteCount, err = decrement(ctx, tx, featureID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *postgresLedger) RetractByID(ctx context.Context, userID, voteID int64) (*model.Result, error) {
	var result model.Result

	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		// Step 1: Resolve the feature without locking the vote, keeping feature-first order
		var featureID int64
		err := tx.QueryRow(ctx,
			`SELECT feature_id FROM votes WHERE id = $1 AND user_id = $2`,
			voteID, userID,
		).Scan(&featureID)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVoteNotFound
		}
		if err != nil {
			return fmt.Errorf("find vote %d: %w", voteID, err)
		}

		// Step 2: Lock the feature
		if _, err := lockFeature(ctx, tx, featureID); err != nil {
			if errors.Is(err, model.ErrFeatureNotFound) {
				return model.ErrVoteNotFound
			}
			return err
		}

		// Step 3: Delete; a concurrent retract may have won since step 1
		err = tx.QueryRow(ctx, `
			DELETE FROM votes
			WHERE id = $1 AND user_id = $2
			RETURNING id, user_id, feature_id, created_at
		`, voteID, userID).Scan(&result.Vote.ID, &result.Vote.UserID, &result.Vote.FeatureID, &result.Vote.CreatedAt)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrVoteNotFound
		}
		if err != nil {
			return fmt.Errorf("delete vote %d: %w", voteID, err)
		}

		result.VoteCount, err = decrement(ctx, tx, featureID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

func (r *postgresLedger) Recount(ctx context.Context, featureID int64) (*model.Recount, error) {
	result := model.Recount{FeatureID: featureID}

	err := r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		previous, err := lockFeature(ctx, tx, featureID)
		if err != nil {
			return err
		}
		result.Previous = previous

		return tx.QueryRow(ctx, `
			UPDATE features
			SET vote_count = (SELECT COUNT(*) FROM votes WHERE feature_id = $1)
			WHERE id = $1
			RETURNING vote_count
		`, featureID).Scan(&result.VoteCount)
	})
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// ========================================
// QUERIES
// ========================================

func (r *postgresLedger) List(ctx context.Context, skip, limit int) ([]model.Vote, error) {
	return r.queryVotes(ctx, `
		SELECT id, user_id, feature_id, created_at
		FROM votes
		ORDER BY id
		OFFSET $1 LIMIT $2
	`, skip, limit)
}

func (r *postgresLedger) ListByFeature(ctx context.Context, featureID int64) ([]model.Vote, error) {
	var exists bool
	if err := r.db.Pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM features WHERE id = $1)`, featureID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check feature %d: %w", featureID, err)
	}
	if !exists {
		return nil, model.ErrFeatureNotFound
	}

	return r.queryVotes(ctx, `
		SELECT id, user_id, feature_id, created_at
		FROM votes
		WHERE feature_id = $1
		ORDER BY id
	`, featureID)
}

func (r *postgresLedger) queryVotes(ctx context.Context, query string, args ...any) ([]model.Vote, error) {
	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query votes: %w", err)
	}

	votes, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Vote, error) {
		var v model.Vote
		err := row.Scan(&v.ID, &v.UserID, &v.FeatureID, &v.CreatedAt)
		return v, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan votes: %w", err)
	}
	return votes, nil
}
