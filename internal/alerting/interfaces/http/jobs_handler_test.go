package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"agroalert/internal/alerting/application"
	alerting "agroalert/internal/alerting/domain"
	alertrepo "agroalert/internal/alerting/infrastructure/postgres"
	"agroalert/internal/audit"
	"agroalert/internal/auth"
	forecastapp "agroalert/internal/forecast/application"
	forecast "agroalert/internal/forecast/domain"
	masterdata "agroalert/internal/masterdata/domain"
)

type noopResolver struct{}

func (noopResolver) ListCandidates(_ context.Context, _ time.Time) ([]application.Candidate, error) {
	return nil, nil
}

type noopWriter struct{}

func (noopWriter) CreateBatch(_ context.Context, _ []*alerting.Notification) error { return nil }

type openGuard struct{}

func (openGuard) TryAcquire(_ context.Context) bool { return true }
func (openGuard) Release(_ context.Context)         {}

type memSeedStore struct {
	users   int
	fields  int
	records int
}

func (m *memSeedStore) Upsert(_ context.Context, _ *masterdata.User) error {
	m.users++
	return nil
}

func (m *memSeedStore) Count(_ context.Context) (int64, error) { return int64(m.users), nil }

type memFieldStore struct{ store *memSeedStore }

func (m memFieldStore) Upsert(_ context.Context, _ *masterdata.Field) error {
	m.store.fields++
	return nil
}

type memRecordStore struct{ store *memSeedStore }

func (m memRecordStore) Upsert(_ context.Context, _ *forecast.Record) error {
	m.store.records++
	return nil
}

type capturingAuditLog struct {
	entries []audit.Entry
}

func (c *capturingAuditLog) Log(_ context.Context, entry audit.Entry) error {
	c.entries = append(c.entries, entry)
	return nil
}

func newTestJobsHandler(t *testing.T, audits audit.Logger) *JobsHandler {
	t.Helper()
	evaluator, err := application.NewEvaluator(noopResolver{}, noopWriter{}, openGuard{}, 0.10, 6*time.Hour)
	if err != nil {
		t.Fatalf("new evaluator: %v", err)
	}
	store := &memSeedStore{}
	seeder, err := forecastapp.NewSeeder(store, memFieldStore{store: store}, memRecordStore{store: store})
	if err != nil {
		t.Fatalf("new seeder: %v", err)
	}
	handler, err := NewJobsHandler(evaluator, seeder, alertrepo.NewNotificationRepository(nil), audits, nil)
	if err != nil {
		t.Fatalf("new jobs handler: %v", err)
	}
	return handler
}

func TestSeedWritesAuditEntry(t *testing.T) {
	audits := &capturingAuditLog{}
	handler := newTestJobsHandler(t, audits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/weather/seed", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "user-admin", auth.RoleAdmin))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", rec.Code)
	}
	if len(audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits.entries))
	}
	entry := audits.entries[0]
	if entry.Actor != "user-admin" {
		t.Errorf("actor = %q", entry.Actor)
	}
	if entry.Role != "admin" {
		t.Errorf("role = %q, want admin", entry.Role)
	}
	if entry.Action != "weather.seed" {
		t.Errorf("action = %q", entry.Action)
	}
	var outcome forecastapp.SeedResult
	if err := json.Unmarshal(entry.Metadata, &outcome); err != nil {
		t.Fatalf("metadata: %v", err)
	}
	if outcome.Users != 1 || outcome.Fields != 2 || outcome.WeatherRecords != 42 {
		t.Errorf("seed outcome = %+v", outcome)
	}
}

func TestEvaluateWritesAuditEntry(t *testing.T) {
	audits := &capturingAuditLog{}
	handler := newTestJobsHandler(t, audits)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/jobs/evaluate-alerts", nil)
	req = req.WithContext(auth.WithIdentity(req.Context(), "user-op", auth.RoleOperator))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(audits.entries) != 1 {
		t.Fatalf("audit entries = %d, want 1", len(audits.entries))
	}
	entry := audits.entries[0]
	if entry.Role != "operator" {
		t.Errorf("role = %q, want operator", entry.Role)
	}
	if entry.Action != "alerts.evaluate" {
		t.Errorf("action = %q", entry.Action)
	}
}
