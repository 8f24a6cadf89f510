package application

import (
	"context"
	"testing"
	"time"

	forecast "agroalert/internal/forecast/domain"
	masterdata "agroalert/internal/masterdata/domain"
)

type memUsers struct {
	users map[string]masterdata.User
}

func (m *memUsers) Upsert(_ context.Context, user *masterdata.User) error {
	if _, ok := m.users[user.ID]; !ok {
		m.users[user.ID] = *user
	}
	return nil
}

func (m *memUsers) Count(_ context.Context) (int64, error) {
	return int64(len(m.users)), nil
}

type memFields struct {
	fields map[string]masterdata.Field
}

func (m *memFields) Upsert(_ context.Context, field *masterdata.Field) error {
	if _, ok := m.fields[field.ID]; !ok {
		m.fields[field.ID] = *field
	}
	return nil
}

type memRecords struct {
	records map[string]forecast.Record
}

func (m *memRecords) Upsert(_ context.Context, record *forecast.Record) error {
	m.records[record.ID] = *record
	return nil
}

func newMemSeeder(t *testing.T) (*Seeder, *memUsers, *memFields, *memRecords) {
	t.Helper()
	users := &memUsers{users: map[string]masterdata.User{}}
	fields := &memFields{fields: map[string]masterdata.Field{}}
	records := &memRecords{records: map[string]forecast.Record{}}
	seeder, err := NewSeeder(users, fields, records)
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	return seeder, users, fields, records
}

func TestSeedWritesDeterministicDataset(t *testing.T) {
	seeder, users, fields, records := newMemSeeder(t)
	ref := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	result, err := seeder.Seed(context.Background(), ref)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	if result.Users != 1 || result.Fields != 2 || result.WeatherRecords != 42 {
		t.Fatalf("unexpected seed result %+v", result)
	}
	if len(users.users) != 1 || len(fields.fields) != 2 || len(records.records) != 42 {
		t.Fatalf("unexpected store sizes: %d users, %d fields, %d records",
			len(users.users), len(fields.fields), len(records.records))
	}

	// Reseeding must update in place, not duplicate.
	if _, err := seeder.Seed(context.Background(), ref); err != nil {
		t.Fatalf("reseed: %v", err)
	}
	if len(records.records) != 42 {
		t.Fatalf("reseed duplicated records: %d", len(records.records))
	}
}

func TestSeedIfEmptySkipsPopulatedStore(t *testing.T) {
	seeder, _, _, _ := newMemSeeder(t)
	ref := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	seeded, err := seeder.SeedIfEmpty(context.Background(), ref)
	if err != nil {
		t.Fatalf("seed if empty: %v", err)
	}
	if !seeded {
		t.Fatalf("expected initial seed")
	}

	seeded, err = seeder.SeedIfEmpty(context.Background(), ref)
	if err != nil {
		t.Fatalf("second seed if empty: %v", err)
	}
	if seeded {
		t.Fatalf("expected no reseed on populated store")
	}
}
