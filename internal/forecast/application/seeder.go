package application

import (
	"context"
	"errors"
	"time"

	forecast "agroalert/internal/forecast/domain"
	masterdata "agroalert/internal/masterdata/domain"
	"agroalert/internal/observability/metrics"

	"github.com/google/uuid"
)

// Demo identities are fixed so repeated seeds stay idempotent.
const (
	seedUserID           = "a1b2c3d4-e5f6-7890-abcd-ef1234567890"
	seedFieldEsperanzaID = "f1e2d3c4-b5a6-7890-fedc-ba0987654321"
	seedFieldPrimaveraID = "f2e3d4c5-b6a7-8901-fedc-ba1098765432"
)

// seedWeather maps field id -> event type -> per-day probabilities starting
// at the seed's reference date.
var seedWeather = map[string]map[string][]float64{
	seedFieldEsperanzaID: {
		forecast.EventFrost: {0.85, 0.40, 0.15, 0.70, 0.05, 0.90, 0.30},
		forecast.EventHail:  {0.20, 0.55, 0.75, 0.30, 0.10, 0.60, 0.45},
		forecast.EventRain:  {0.50, 0.65, 0.80, 0.35, 0.70, 0.25, 0.55},
	},
	seedFieldPrimaveraID: {
		forecast.EventDrought:    {0.30, 0.45, 0.60, 0.80, 0.90, 0.50, 0.20},
		forecast.EventHeatWave:   {0.70, 0.85, 0.55, 0.40, 0.75, 0.90, 0.15},
		forecast.EventStrongWind: {0.10, 0.25, 0.50, 0.65, 0.35, 0.80, 0.45},
	},
}

// UserWriter upserts demo users.
type UserWriter interface {
	Upsert(ctx context.Context, user *masterdata.User) error
	Count(ctx context.Context) (int64, error)
}

// FieldWriter upserts demo fields.
type FieldWriter interface {
	Upsert(ctx context.Context, field *masterdata.Field) error
}

// RecordWriter upserts forecast records.
type RecordWriter interface {
	Upsert(ctx context.Context, record *forecast.Record) error
}

// SeedResult reports what a seed run wrote.
type SeedResult struct {
	Users          int `json:"users"`
	Fields         int `json:"fields"`
	WeatherRecords int `json:"weather_records"`
}

// Seeder writes deterministic demo data: one user, two fields, a 7-day
// forecast grid per field. Forecast ids derive from the natural key so a
// reseed updates probabilities in place instead of duplicating rows.
type Seeder struct {
	users   UserWriter
	fields  FieldWriter
	records RecordWriter
}

// NewSeeder constructs a seeder.
func NewSeeder(users UserWriter, fields FieldWriter, records RecordWriter) (*Seeder, error) {
	if users == nil || fields == nil || records == nil {
		return nil, errors.New("seeder: nil repository")
	}
	return &Seeder{users: users, fields: fields, records: records}, nil
}

// Seed upserts the demo dataset anchored at referenceDate.
func (s *Seeder) Seed(ctx context.Context, referenceDate time.Time) (result SeedResult, err error) {
	if s == nil {
		return SeedResult{}, errors.New("seeder: nil")
	}
	defer func() { metrics.IncSeedRun(err) }()
	if referenceDate.IsZero() {
		now := time.Now().UTC()
		referenceDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	user := &masterdata.User{
		ID:    seedUserID,
		Name:  "Juan Agricultor",
		Phone: "+54 9 11 1234-5678",
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return SeedResult{}, err
	}

	fields := []masterdata.Field{
		{ID: seedFieldEsperanzaID, UserID: seedUserID, Name: "Campo La Esperanza", Latitude: -33.94, Longitude: -60.95},
		{ID: seedFieldPrimaveraID, UserID: seedUserID, Name: "Campo Primavera", Latitude: -34.60, Longitude: -58.38},
	}
	for i := range fields {
		if err := s.fields.Upsert(ctx, &fields[i]); err != nil {
			return SeedResult{}, err
		}
	}

	result = SeedResult{Users: 1, Fields: len(fields)}
	for fieldID, events := range seedWeather {
		for eventType, probs := range events {
			for offset, prob := range probs {
				eventDate := referenceDate.AddDate(0, 0, offset)
				record := &forecast.Record{
					ID:          recordID(fieldID, eventDate, eventType),
					FieldID:     fieldID,
					EventDate:   eventDate,
					EventType:   eventType,
					Probability: prob,
				}
				if err := s.records.Upsert(ctx, record); err != nil {
					return SeedResult{}, err
				}
				result.WeatherRecords++
			}
		}
	}
	return result, nil
}

// SeedIfEmpty seeds only when no users exist yet.
func (s *Seeder) SeedIfEmpty(ctx context.Context, referenceDate time.Time) (bool, error) {
	if s == nil {
		return false, errors.New("seeder: nil")
	}
	count, err := s.users.Count(ctx)
	if err != nil {
		return false, err
	}
	if count > 0 {
		return false, nil
	}
	if _, err := s.Seed(ctx, referenceDate); err != nil {
		return false, err
	}
	return true, nil
}

func recordID(fieldID string, eventDate time.Time, eventType string) string {
	name := fieldID + "-" + eventDate.Format("2006-01-02") + "-" + eventType
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(name)).String()
}
