package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feature-voting-backend/internal/domains/user/model"
	"feature-voting-backend/internal/infrastructure/database"
)

type postgresRepository struct {
	db *database.PostgresDB
}

func NewPostgresRepository(db *database.PostgresDB) Repository {
	return &postgresRepository{db: db}
}

func (r *postgresRepository) Create(ctx context.Context, u *model.User) error {
	query := `
		INSERT INTO users (username, email)
		VALUES ($1, $2)
		RETURNING id, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, u.Username, u.Email).Scan(&u.ID, &u.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert user: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT id, username, email, created_at FROM users WHERE id = $1`

	var u model.User
	err := r.db.Pool.QueryRow(ctx, query, id).Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find user %d: %w", id, err)
	}
	return &u, nil
}

func (r *postgresRepository) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	query := `
		SELECT id, username, email, created_at
		FROM users
		ORDER BY id
		OFFSET $1 LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]model.User, 0, limit)
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (r *postgresRepository) Exists(ctx context.Context, id int64) (bool, error) {
	var exists bool
	err := r.db.Pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check user %d: %w", id, err)
	}
	return exists, nil
}

// Delete locks the user row first. FOR UPDATE conflicts with the FOR KEY SHARE
// taken by the votes FK check, so no vote by this user can be inserted until
// we commit, and in-flight inserts finish before we read the vote set.
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	return r.db.ExecuteInTransaction(ctx, nil, func(tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return model.ErrUserNotFound
		}
		if err != nil {
			return fmt.Errorf("lock user %d: %w", id, err)
		}

		// Same lock order as the vote ledger: feature rows, ascending id
		_, err = tx.Exec(ctx, `
			SELECT f.id FROM features f
			WHERE f.id IN (SELECT feature_id FROM votes WHERE user_id = $1)
			ORDER BY f.id
			FOR UPDATE
		`, id)
		if err != nil {
			return fmt.Errorf("lock voted features: %w", err)
		}

		// Fresh statement snapshot: sees retractions committed while we waited
		_, err = tx.Exec(ctx, `
			UPDATE features
			SET vote_count = GREATEST(vote_count - 1, 0)
			WHERE id IN (SELECT feature_id FROM votes WHERE user_id = $1)
			  AND author_id <> $1
		`, id)
		if err != nil {
			return fmt.Errorf("release votes of user %d: %w", id, err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id); err != nil {
			return fmt.Errorf("delete user %d: %w", id, database.ClassifyError(err))
		}
		return nil
	})
}
