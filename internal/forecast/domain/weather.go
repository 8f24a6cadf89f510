package forecast

import (
	"errors"
	"time"
)

// Climate event type codes tracked by the platform.
const (
	EventFrost      = "frost"
	EventRain       = "rain"
	EventHail       = "hail"
	EventDrought    = "drought"
	EventHeatWave   = "heat_wave"
	EventStrongWind = "strong_wind"
)

var eventLabels = map[string]string{
	EventFrost:      "helada",
	EventRain:       "lluvia",
	EventHail:       "granizo",
	EventDrought:    "sequía",
	EventHeatWave:   "ola de calor",
	EventStrongWind: "viento fuerte",
}

// EventLabel returns the Spanish display label for an event type code.
// Unknown codes fall back to the raw code so messages stay renderable.
func EventLabel(eventType string) string {
	if label, ok := eventLabels[eventType]; ok {
		return label
	}
	return eventType
}

// ValidEventType reports whether the event type code is known.
func ValidEventType(eventType string) bool {
	_, ok := eventLabels[eventType]
	return ok
}

// Record is one probability estimate for one event type on one field on one
// date. Unique per (field, event date, event type); written by the ingestion
// side and read-only to the evaluation engine.
type Record struct {
	ID          string    `json:"id"`
	FieldID     string    `json:"field_id"`
	EventDate   time.Time `json:"event_date"`
	EventType   string    `json:"event_type"`
	Probability float64   `json:"probability"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Validate checks record invariants.
func (r Record) Validate() error {
	if r.ID == "" {
		return errors.New("forecast record: empty id")
	}
	if r.FieldID == "" {
		return errors.New("forecast record: empty field id")
	}
	if r.EventType == "" {
		return errors.New("forecast record: empty event type")
	}
	if r.EventDate.IsZero() {
		return errors.New("forecast record: zero event date")
	}
	if r.Probability < 0 || r.Probability > 1 {
		return errors.New("forecast record: probability out of range")
	}
	return nil
}
