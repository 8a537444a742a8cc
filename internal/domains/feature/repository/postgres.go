package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"feature-voting-backend/internal/domains/feature/model"
	"feature-voting-backend/internal/infrastructure/database"
)

const featureColumns = `id, title, description, author_id, vote_count, created_at`

type postgresRepository struct {
	db *database.PostgresDB
}

func NewPostgresRepository(db *database.PostgresDB) Repository {
	return &postgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFeature(row scanner) (*model.Feature, error) {
	var f model.Feature
	if err := row.Scan(&f.ID, &f.Title, &f.Description, &f.AuthorID, &f.VoteCount, &f.CreatedAt); err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *postgresRepository) Create(ctx context.Context, f *model.Feature) error {
	query := `
		INSERT INTO features (title, description, author_id, vote_count)
		VALUES ($1, $2, $3, 0)
		RETURNING id, vote_count, created_at
	`

	err := r.db.Pool.QueryRow(ctx, query, f.Title, f.Description, f.AuthorID).
		Scan(&f.ID, &f.VoteCount, &f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert feature: %w", database.ClassifyError(err))
	}
	return nil
}

func (r *postgresRepository) FindByID(ctx context.Context, id int64) (*model.Feature, error) {
	query := `SELECT ` + featureColumns + ` FROM features WHERE id = $1`

	f, err := scanFeature(r.db.Pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrFeatureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find feature %d: %w", id, err)
	}
	return f, nil
}

// List reads the page and the total from one snapshot
func (r *postgresRepository) List(ctx context.Context, offset, limit int) ([]model.Feature, int, error) {
	var (
		features []model.Feature
		total    int
	)

	opts := &database.TxOptions{IsoLevel: database.RepeatableRead, AccessMode: database.ReadOnly}
	err := r.db.ExecuteInTransaction(ctx, opts, func(tx pgx.Tx) error {
		if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM features`).Scan(&total); err != nil {
			return fmt.Errorf("count features: %w", err)
		}

		rows, err := tx.Query(ctx, `
			SELECT `+featureColumns+`
			FROM features
			ORDER BY vote_count DESC, id ASC
			OFFSET $1 LIMIT $2
		`, offset, limit)
		if err != nil {
			return fmt.Errorf("list features: %w", err)
		}
		defer rows.Close()

		features = make([]model.Feature, 0, limit)
		for rows.Next() {
			f, err := scanFeature(rows)
			if err != nil {
				return fmt.Errorf("scan feature: %w", err)
			}
			features = append(features, *f)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, 0, err
	}
	return features, total, nil
}

// Update applies only supplied fields. COALESCE keeps the current value for NULL parameters.
func (r *postgresRepository) Update(ctx context.Context, id int64, req model.UpdateFeatureRequest) (*model.Feature, error) {
	query := `
		UPDATE features
		SET title       = COALESCE($2, title),
		    description = COALESCE($3, description),
		    vote_count  = COALESCE($4, vote_count)
		WHERE id = $1
		RETURNING ` + featureColumns

	f, err := scanFeature(r.db.Pool.QueryRow(ctx, query, id, req.Title, req.Description, req.VoteCount))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, model.ErrFeatureNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update feature %d: %w", id, database.ClassifyError(err))
	}
	return f, nil
}

// Delete removes the feature; its votes go with it through ON DELETE CASCADE
func (r *postgresRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.db.Pool.Exec(ctx, `DELETE FROM features WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete feature %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrFeatureNotFound
	}
	return nil
}
