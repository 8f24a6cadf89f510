package masterdata

import (
	"errors"
	"time"
)

// User owns fields and receives notifications on their phone.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}

// Field is one agricultural plot tracked for climate risk.
type Field struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Name      string    `json:"name"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	CreatedAt time.Time `json:"created_at"`
}

// Validate checks field invariants.
func (f Field) Validate() error {
	if f.ID == "" {
		return errors.New("field: empty id")
	}
	if f.UserID == "" {
		return errors.New("field: empty user id")
	}
	if f.Name == "" {
		return errors.New("field: empty name")
	}
	if f.Latitude < -90 || f.Latitude > 90 {
		return errors.New("field: latitude out of range")
	}
	if f.Longitude < -180 || f.Longitude > 180 {
		return errors.New("field: longitude out of range")
	}
	return nil
}

// ErrNotFound indicates a missing masterdata record.
var ErrNotFound = errors.New("masterdata: not found")
