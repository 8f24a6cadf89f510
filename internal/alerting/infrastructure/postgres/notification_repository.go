package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"time"

	alerting "agroalert/internal/alerting/domain"
)

// NotificationRepository is a Postgres repository for notifications.
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository constructs a repository.
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// CreateBatch inserts one run's notifications inside a single transaction.
// A failure rolls the whole batch back; no partial run output is retained.
func (r *NotificationRepository) CreateBatch(ctx context.Context, notifications []*alerting.Notification) error {
	if r == nil || r.db == nil {
		return errors.New("notification repo: nil db")
	}
	if len(notifications) == 0 {
		return nil
	}
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, n := range notifications {
		if n == nil {
			return errors.New("notification repo: nil notification")
		}
		if n.ID == "" || n.ForecastID == "" || n.Action == "" || n.Message == "" {
			return errors.New("notification repo: missing fields")
		}
		if n.TriggeredAt.IsZero() {
			n.TriggeredAt = time.Now().UTC()
		}
		if _, err := tx.ExecContext(ctx, `
INSERT INTO notifications (
	id, alert_config_id, weather_data_id, notification_type,
	probability_at_notification, previous_notification_id, status, message,
	triggered_at, delivered_at
) VALUES (
	$1, $2, $3, $4,
	$5, $6, $7, $8,
	$9, $10
)`,
			n.ID,
			nullableString(n.AlertConfigID),
			n.ForecastID,
			n.Action,
			n.Probability,
			nullableString(n.PreviousID),
			n.Status,
			n.Message,
			n.TriggeredAt,
			nullableTime(n.DeliveredAt),
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// GetByID fetches a notification.
func (r *NotificationRepository) GetByID(ctx context.Context, id string) (*alerting.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repo: nil db")
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, alert_config_id, weather_data_id, notification_type,
	probability_at_notification, previous_notification_id, status, message,
	triggered_at, delivered_at
FROM notifications
WHERE id = $1`, id)
	return scanNotification(row)
}

// ListByUser lists notifications attached to fields the user owns, newest
// first, optionally filtered by action kind.
func (r *NotificationRepository) ListByUser(ctx context.Context, userID, action string, limit, offset int) ([]alerting.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repo: nil db")
	}
	if userID == "" {
		return nil, errors.New("notification repo: user id required")
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	query := `
SELECT n.id, n.alert_config_id, n.weather_data_id, n.notification_type,
	n.probability_at_notification, n.previous_notification_id, n.status, n.message,
	n.triggered_at, n.delivered_at
FROM notifications n
JOIN alert_configs ac ON ac.id = n.alert_config_id
JOIN fields f ON f.id = ac.field_id
WHERE f.user_id = $1`
	args := []any{userID}
	if action != "" {
		query += " AND n.notification_type = $2"
		args = append(args, action)
	}
	query += " ORDER BY n.triggered_at DESC"
	args = append(args, limit, offset)
	query += " LIMIT $" + strconv.Itoa(len(args)-1) + " OFFSET $" + strconv.Itoa(len(args))

	return r.list(ctx, query, args...)
}

// ListRecent lists the newest notifications across all users, for exports.
func (r *NotificationRepository) ListRecent(ctx context.Context, limit int) ([]alerting.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repo: nil db")
	}
	if limit <= 0 || limit > 5000 {
		limit = 1000
	}
	return r.list(ctx, `
SELECT id, alert_config_id, weather_data_id, notification_type,
	probability_at_notification, previous_notification_id, status, message,
	triggered_at, delivered_at
FROM notifications
ORDER BY triggered_at DESC
LIMIT $1`, limit)
}

// ListPending lists undelivered notifications, oldest first, for the
// delivery dispatcher.
func (r *NotificationRepository) ListPending(ctx context.Context, limit int) ([]alerting.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repo: nil db")
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.list(ctx, `
SELECT id, alert_config_id, weather_data_id, notification_type,
	probability_at_notification, previous_notification_id, status, message,
	triggered_at, delivered_at
FROM notifications
WHERE status = $1
ORDER BY triggered_at ASC
LIMIT $2`, alerting.StatusPending, limit)
}

// MarkFailed records a delivery failure. Failed rows drop out of the
// dispatch queue.
func (r *NotificationRepository) MarkFailed(ctx context.Context, id string) error {
	if r == nil || r.db == nil {
		return errors.New("notification repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE notifications
SET status = $1
WHERE id = $2`, alerting.StatusFailed, id)
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

// MarkDelivered records delivery confirmation. Only status and delivered_at
// change; decision-relevant fields stay immutable after creation.
func (r *NotificationRepository) MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) (*alerting.Notification, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("notification repo: nil db")
	}
	result, err := r.db.ExecContext(ctx, `
UPDATE notifications
SET status = $1, delivered_at = $2
WHERE id = $3`, alerting.StatusDelivered, deliveredAt, id)
	if err != nil {
		return nil, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		return nil, alerting.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

// Stats aggregates notification counts for the jobs endpoint.
type Stats struct {
	Total         int64     `json:"total_notifications"`
	Pending       int64     `json:"pending"`
	Delivered     int64     `json:"delivered"`
	LastTriggered time.Time `json:"last_triggered,omitempty"`
}

// Stats returns aggregate counts and the most recent trigger time.
func (r *NotificationRepository) Stats(ctx context.Context) (Stats, error) {
	if r == nil || r.db == nil {
		return Stats{}, errors.New("notification repo: nil db")
	}
	var stats Stats
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, `
SELECT COUNT(*),
	COUNT(*) FILTER (WHERE status = 'pending'),
	COUNT(*) FILTER (WHERE status = 'delivered'),
	MAX(triggered_at)
FROM notifications`).Scan(&stats.Total, &stats.Pending, &stats.Delivered, &last)
	if err != nil {
		return Stats{}, err
	}
	if last.Valid {
		stats.LastTriggered = last.Time.UTC()
	}
	return stats, nil
}

func (r *NotificationRepository) list(ctx context.Context, query string, args ...any) ([]alerting.Notification, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []alerting.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

type notificationScanner interface {
	Scan(dest ...any) error
}

func scanNotification(row notificationScanner) (*alerting.Notification, error) {
	var n alerting.Notification
	var configID sql.NullString
	var previousID sql.NullString
	var deliveredAt sql.NullTime
	if err := row.Scan(
		&n.ID,
		&configID,
		&n.ForecastID,
		&n.Action,
		&n.Probability,
		&previousID,
		&n.Status,
		&n.Message,
		&n.TriggeredAt,
		&deliveredAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, alerting.ErrNotFound
		}
		return nil, err
	}
	n.TriggeredAt = n.TriggeredAt.UTC()
	if configID.Valid {
		n.AlertConfigID = configID.String
	}
	if previousID.Valid {
		n.PreviousID = previousID.String
	}
	if deliveredAt.Valid {
		n.DeliveredAt = deliveredAt.Time.UTC()
	}
	return &n, nil
}

func nullableString(value string) sql.NullString {
	if value == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: value, Valid: true}
}

func nullableTime(value time.Time) sql.NullTime {
	if value.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: value, Valid: true}
}
