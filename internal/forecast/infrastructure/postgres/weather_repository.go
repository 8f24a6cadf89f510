package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	forecast "agroalert/internal/forecast/domain"
)

// WeatherRepository is a Postgres repository for forecast records.
type WeatherRepository struct {
	db *sql.DB
}

// NewWeatherRepository constructs a repository.
func NewWeatherRepository(db *sql.DB) *WeatherRepository {
	return &WeatherRepository{db: db}
}

// Upsert inserts a forecast record or refreshes the probability of the
// existing (field, date, event type) row.
func (r *WeatherRepository) Upsert(ctx context.Context, record *forecast.Record) error {
	if r == nil || r.db == nil {
		return errors.New("weather repo: nil db")
	}
	if record == nil {
		return errors.New("weather repo: nil record")
	}
	if err := record.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if record.CreatedAt.IsZero() {
		record.CreatedAt = now
	}
	_, err := r.db.ExecContext(ctx, `
INSERT INTO weather_data (id, field_id, event_date, event_type, probability, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT ON CONSTRAINT uq_weather_field_date_type
DO UPDATE SET probability = EXCLUDED.probability, updated_at = $7`,
		record.ID,
		record.FieldID,
		record.EventDate,
		record.EventType,
		record.Probability,
		record.CreatedAt,
		now,
	)
	return err
}

// ListByField lists forecast rows for a field on or after fromDate.
func (r *WeatherRepository) ListByField(ctx context.Context, fieldID string, fromDate time.Time) ([]forecast.Record, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("weather repo: nil db")
	}
	if fieldID == "" {
		return nil, errors.New("weather repo: field id required")
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, field_id, event_date, event_type, probability, created_at, updated_at
FROM weather_data
WHERE field_id = $1 AND event_date >= $2
ORDER BY event_date, event_type`, fieldID, fromDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []forecast.Record
	for rows.Next() {
		var record forecast.Record
		if err := rows.Scan(
			&record.ID,
			&record.FieldID,
			&record.EventDate,
			&record.EventType,
			&record.Probability,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
