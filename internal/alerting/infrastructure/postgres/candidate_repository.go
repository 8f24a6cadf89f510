package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"agroalert/internal/alerting/application"
	alerting "agroalert/internal/alerting/domain"
)

// CandidateRepository resolves evaluation candidates: every active alert
// config joined with its matching forecast rows on or after the reference
// date, plus the latest prior notification for each exact pair.
type CandidateRepository struct {
	db *sql.DB
}

// NewCandidateRepository constructs a repository.
func NewCandidateRepository(db *sql.DB) *CandidateRepository {
	return &CandidateRepository{db: db}
}

// ListCandidates returns candidate pairs for referenceDate. Read-only.
// "Latest" is triggered_at descending with id descending as the stable
// tie-break, so equal timestamps written in one transaction still resolve
// the same way on every run.
func (r *CandidateRepository) ListCandidates(ctx context.Context, referenceDate time.Time) ([]application.Candidate, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("candidate repo: nil db")
	}
	rows, err := r.db.QueryContext(ctx, `
WITH latest AS (
	SELECT n.alert_config_id,
		n.weather_data_id,
		n.notification_type,
		n.probability_at_notification,
		n.triggered_at,
		n.id AS notification_id,
		ROW_NUMBER() OVER (
			PARTITION BY n.alert_config_id, n.weather_data_id
			ORDER BY n.triggered_at DESC, n.id DESC
		) AS rn
	FROM notifications n
	WHERE n.alert_config_id IS NOT NULL
)
SELECT ac.id, ac.field_id, ac.event_type, ac.threshold,
	w.id, w.event_date, w.probability,
	f.name,
	l.notification_type, l.probability_at_notification, l.triggered_at, l.notification_id
FROM alert_configs ac
JOIN fields f ON f.id = ac.field_id
JOIN weather_data w
	ON w.field_id = ac.field_id AND w.event_type = ac.event_type
LEFT JOIN latest l
	ON l.alert_config_id = ac.id AND l.weather_data_id = w.id AND l.rn = 1
WHERE ac.is_active AND w.event_date >= $1
ORDER BY ac.id, w.event_date`, referenceDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var candidates []application.Candidate
	for rows.Next() {
		var candidate application.Candidate
		var prevType sql.NullString
		var prevProb sql.NullFloat64
		var prevTriggered sql.NullTime
		var prevID sql.NullString
		if err := rows.Scan(
			&candidate.Config.ID,
			&candidate.Config.FieldID,
			&candidate.Config.EventType,
			&candidate.Config.Threshold,
			&candidate.Forecast.ID,
			&candidate.Forecast.EventDate,
			&candidate.Forecast.Probability,
			&candidate.FieldName,
			&prevType,
			&prevProb,
			&prevTriggered,
			&prevID,
		); err != nil {
			return nil, err
		}
		candidate.Config.IsActive = true
		candidate.Forecast.FieldID = candidate.Config.FieldID
		candidate.Forecast.EventType = candidate.Config.EventType
		if prevID.Valid {
			candidate.Previous = &alerting.Notification{
				ID:            prevID.String,
				AlertConfigID: candidate.Config.ID,
				ForecastID:    candidate.Forecast.ID,
				Action:        prevType.String,
				Probability:   prevProb.Float64,
				TriggeredAt:   prevTriggered.Time.UTC(),
			}
		}
		candidates = append(candidates, candidate)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return candidates, nil
}

var _ application.CandidateResolver = (*CandidateRepository)(nil)
