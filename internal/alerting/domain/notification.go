package alerting

import "time"

// Notification action kinds. ActionRiskDecreased is recognized but never
// produced by the decision table; it stays reserved until product signs
// off on the spam implications.
const (
	ActionRiskIncreased = "risk_increased"
	ActionRiskDecreased = "risk_decreased"
	ActionRiskEnded     = "risk_ended"
)

// Notification delivery statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusFailed    = "failed"
)

// Notification records one decided action for an (alert config, forecast)
// pair. PreviousID chains it to the latest prior notification for the same
// pair; the chain is acyclic and always points to a row with an earlier
// triggered_at. AlertConfigID goes null when the config is deleted so the
// history survives.
type Notification struct {
	ID            string    `json:"id"`
	AlertConfigID string    `json:"alert_config_id,omitempty"`
	ForecastID    string    `json:"forecast_id"`
	Action        string    `json:"action"`
	Probability   float64   `json:"probability"`
	PreviousID    string    `json:"previous_id,omitempty"`
	Status        string    `json:"status"`
	Message       string    `json:"message"`
	TriggeredAt   time.Time `json:"triggered_at"`
	DeliveredAt   time.Time `json:"delivered_at,omitempty"`
}

// ValidAction reports whether the action kind is recognized.
func ValidAction(action string) bool {
	switch action {
	case ActionRiskIncreased, ActionRiskDecreased, ActionRiskEnded:
		return true
	default:
		return false
	}
}

// ValidStatus reports whether the delivery status is recognized.
func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusDelivered, StatusFailed:
		return true
	default:
		return false
	}
}
