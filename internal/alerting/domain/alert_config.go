package alerting

import (
	"errors"
	"time"
)

// AlertConfig subscribes one field to one climate event type with a
// probability threshold. Unique per (field, event type).
type AlertConfig struct {
	ID        string    `json:"id"`
	FieldID   string    `json:"field_id"`
	EventType string    `json:"event_type"`
	Threshold float64   `json:"threshold"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks alert config invariants.
func (c AlertConfig) Validate() error {
	if c.ID == "" {
		return errors.New("alert config: empty id")
	}
	if c.FieldID == "" {
		return errors.New("alert config: empty field id")
	}
	if c.EventType == "" {
		return errors.New("alert config: empty event type")
	}
	if c.Threshold < 0 || c.Threshold > 1 {
		return ErrThresholdRange
	}
	return nil
}
