package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	alerting "agroalert/internal/alerting/domain"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// AlertConfigRepository is a Postgres repository for alert configs.
type AlertConfigRepository struct {
	db *sql.DB
}

// NewAlertConfigRepository constructs a repository.
func NewAlertConfigRepository(db *sql.DB) *AlertConfigRepository {
	return &AlertConfigRepository{db: db}
}

// Create inserts a new alert config. A (field, event type) duplicate maps
// to ErrDuplicateConfig.
func (r *AlertConfigRepository) Create(ctx context.Context, config *alerting.AlertConfig) error {
	if r == nil || r.db == nil {
		return errors.New("alert config repo: nil db")
	}
	if config == nil {
		return errors.New("alert config repo: nil config")
	}
	if err := config.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if config.CreatedAt.IsZero() {
		config.CreatedAt = now
	}
	if config.UpdatedAt.IsZero() {
		config.UpdatedAt = config.CreatedAt
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO alert_configs (id, field_id, event_type, threshold, is_active, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		config.ID,
		config.FieldID,
		config.EventType,
		config.Threshold,
		config.IsActive,
		config.CreatedAt,
		config.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return alerting.ErrDuplicateConfig
	}
	return err
}

// GetByID fetches an alert config.
func (r *AlertConfigRepository) GetByID(ctx context.Context, id string) (*alerting.AlertConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert config repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, field_id, event_type, threshold, is_active, created_at, updated_at
FROM alert_configs
WHERE id = $1`, id)
	return scanAlertConfig(row)
}

// ListByField lists alert configs for one field.
func (r *AlertConfigRepository) ListByField(ctx context.Context, fieldID string) ([]alerting.AlertConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert config repo: nil db")
	}
	if fieldID == "" {
		return nil, errors.New("alert config repo: field id required")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, field_id, event_type, threshold, is_active, created_at, updated_at
FROM alert_configs
WHERE field_id = $1
ORDER BY created_at`, fieldID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerting.AlertConfig
	for rows.Next() {
		config, err := scanAlertConfig(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *config)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Update changes threshold and/or active flag.
func (r *AlertConfigRepository) Update(ctx context.Context, id string, threshold *float64, isActive *bool) (*alerting.AlertConfig, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("alert config repo: nil db")
	}
	config, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if threshold != nil {
		if *threshold < 0 || *threshold > 1 {
			return nil, alerting.ErrThresholdRange
		}
		config.Threshold = *threshold
	}
	if isActive != nil {
		config.IsActive = *isActive
	}
	config.UpdatedAt = time.Now().UTC()
	_, err = r.db.ExecContext(ctx, `
UPDATE alert_configs
SET threshold = $1, is_active = $2, updated_at = $3
WHERE id = $4`, config.Threshold, config.IsActive, config.UpdatedAt, id)
	if err != nil {
		return nil, err
	}
	return config, nil
}

// Delete removes an alert config. Notification history keeps its rows with
// alert_config_id set null by the schema's ON DELETE SET NULL.
func (r *AlertConfigRepository) Delete(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("alert config repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM alert_configs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return alerting.ErrNotFound
	}
	return nil
}

type alertConfigScanner interface {
	Scan(dest ...any) error
}

func scanAlertConfig(row alertConfigScanner) (*alerting.AlertConfig, error) {
	var config alerting.AlertConfig
	if err := row.Scan(
		&config.ID,
		&config.FieldID,
		&config.EventType,
		&config.Threshold,
		&config.IsActive,
		&config.CreatedAt,
		&config.UpdatedAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alerting.ErrNotFound
		}
		return nil, err
	}
	config.CreatedAt = config.CreatedAt.UTC()
	config.UpdatedAt = config.UpdatedAt.UTC()
	return &config, nil
}
