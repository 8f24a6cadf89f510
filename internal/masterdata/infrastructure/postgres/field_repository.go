package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	masterdata "agroalert/internal/masterdata/domain"
)

// FieldRepository is a Postgres repository for fields.
type FieldRepository struct {
	db *sql.DB
}

// NewFieldRepository constructs a repository.
func NewFieldRepository(db *sql.DB) *FieldRepository {
	return &FieldRepository{db: db}
}

// Upsert inserts a field, keeping the existing row on conflict.
func (r *FieldRepository) Upsert(ctx context.Context, field *masterdata.Field) error {
	if r == nil || r.db == nil {
		return errors.New("field repo: nil db")
	}
	if field == nil {
		return errors.New("field repo: nil field")
	}
	if err := field.Validate(); err != nil {
		return err
	}
	if field.CreatedAt.IsZero() {
		field.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO fields (id, user_id, name, latitude, longitude, created_at)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO NOTHING`,
		field.ID,
		field.UserID,
		field.Name,
		field.Latitude,
		field.Longitude,
		field.CreatedAt,
	)
	return err
}

// GetByID fetches a field.
func (r *FieldRepository) GetByID(ctx context.Context, id string) (*masterdata.Field, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("field repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, name, latitude, longitude, created_at
FROM fields
WHERE id = $1`, id)
	var field masterdata.Field
	if err := row.Scan(
		&field.ID,
		&field.UserID,
		&field.Name,
		&field.Latitude,
		&field.Longitude,
		&field.CreatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrNotFound
		}
		return nil, err
	}
	field.CreatedAt = field.CreatedAt.UTC()
	return &field, nil
}

// ListByUser lists fields owned by a user.
func (r *FieldRepository) ListByUser(ctx context.Context, userID string) ([]masterdata.Field, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("field repo: nil db")
	}
	if userID == "" {
		return nil, errors.New("field repo: user id required")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, name, latitude, longitude, created_at
FROM fields
WHERE user_id = $1
ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []masterdata.Field
	for rows.Next() {
		var field masterdata.Field
		if err := rows.Scan(
			&field.ID,
			&field.UserID,
			&field.Name,
			&field.Latitude,
			&field.Longitude,
			&field.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, field)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
