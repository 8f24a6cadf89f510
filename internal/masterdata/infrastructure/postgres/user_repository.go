package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	masterdata "agroalert/internal/masterdata/domain"
)

// UserRepository is a Postgres repository for users.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository constructs a repository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// Upsert inserts a user, keeping the existing row on conflict.
func (r *UserRepository) Upsert(ctx context.Context, user *masterdata.User) error {
	if r == nil || r.db == nil {
		return errors.New("user repo: nil db")
	}
	if user == nil {
		return errors.New("user repo: nil user")
	}
	if user.ID == "" || user.Name == "" {
		return errors.New("user repo: missing fields")
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO users (id, name, phone, created_at)
VALUES ($1, $2, $3, $4)
ON CONFLICT (id) DO NOTHING`,
		user.ID,
		user.Name,
		user.Phone,
		user.CreatedAt,
	)
	return err
}

// GetByID fetches a user.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*masterdata.User, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("user repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, name, phone, created_at
FROM users
WHERE id = $1`, id)
	var user masterdata.User
	if err := row.Scan(&user.ID, &user.Name, &user.Phone, &user.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, masterdata.ErrNotFound
		}
		return nil, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	return &user, nil
}

// Count returns the number of users, used by the startup seed check.
func (r *UserRepository) Count(ctx context.Context) (int64, error) {
	if r == nil || r.db == nil {
		return 0, errors.New("user repo: nil db")
	}
	var count int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
