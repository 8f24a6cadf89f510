package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"agroalert/internal/alerting/application"
	alertrepo "agroalert/internal/alerting/infrastructure/postgres"
	"agroalert/internal/audit"
	"agroalert/internal/auth"
	forecastapp "agroalert/internal/forecast/application"
)

// JobsHandler exposes operational endpoints: manual evaluation runs,
// pipeline stats and demo-data seeding.
type JobsHandler struct {
	evaluator     *application.Evaluator
	seeder        *forecastapp.Seeder
	notifications *alertrepo.NotificationRepository
	audits        audit.Logger
	logger        *log.Logger
}

// NewJobsHandler constructs a handler. The audit logger is optional.
func NewJobsHandler(evaluator *application.Evaluator, seeder *forecastapp.Seeder, notifications *alertrepo.NotificationRepository, audits audit.Logger, logger *log.Logger) (*JobsHandler, error) {
	if evaluator == nil {
		return nil, errors.New("jobs handler: nil evaluator")
	}
	if seeder == nil {
		return nil, errors.New("jobs handler: nil seeder")
	}
	if notifications == nil {
		return nil, errors.New("jobs handler: nil notification repo")
	}
	return &JobsHandler{
		evaluator:     evaluator,
		seeder:        seeder,
		notifications: notifications,
		audits:        audits,
		logger:        logger,
	}, nil
}

// ServeHTTP handles /api/v1/jobs/... and /api/v1/weather/seed.
func (h *JobsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.URL.Path {
	case "/api/v1/jobs/evaluate-alerts":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleEvaluate(w, r)
	case "/api/v1/jobs/stats":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleStats(w, r)
	case "/api/v1/weather/seed":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleSeed(w, r)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type evaluateRequest struct {
	ReferenceDate string `json:"reference_date"`
}

func (h *JobsHandler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	referenceDate := midnightUTC(time.Now().UTC())
	if r.Body != nil && r.ContentLength != 0 {
		var payload evaluateRequest
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			http.Error(w, "invalid json body", http.StatusBadRequest)
			return
		}
		if payload.ReferenceDate != "" {
			parsed, err := time.Parse("2006-01-02", payload.ReferenceDate)
			if err != nil {
				http.Error(w, "reference_date must be YYYY-MM-DD", http.StatusBadRequest)
				return
			}
			referenceDate = parsed.UTC()
		}
	}

	result, err := h.evaluator.Evaluate(r.Context(), referenceDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.recordAudit(r, "alerts.evaluate", "evaluation_run", referenceDate.Format("2006-01-02"), result)

	status := http.StatusOK
	if result.Locked {
		// Another instance holds the run lock; nothing happened here.
		status = http.StatusAccepted
	}
	respondJSON(w, status, result)
}

func (h *JobsHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.notifications.Stats(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusOK, stats)
}

func (h *JobsHandler) handleSeed(w http.ResponseWriter, r *http.Request) {
	referenceDate := midnightUTC(time.Now().UTC())
	result, err := h.seeder.Seed(r.Context(), referenceDate)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	h.recordAudit(r, "weather.seed", "seed_run", referenceDate.Format("2006-01-02"), result)
	respondJSON(w, http.StatusCreated, result)
}

func (h *JobsHandler) recordAudit(r *http.Request, action, resourceType, resourceID string, outcome any) {
	if h.audits == nil {
		return
	}
	meta, err := json.Marshal(outcome)
	if err != nil {
		meta = nil
	}
	entry := audit.Entry{
		ID:            audit.NewID(),
		Actor:         auth.UserIDFromContext(r.Context()),
		Role:          string(auth.RoleFromContext(r.Context())),
		Action:        action,
		ResourceType:  resourceType,
		ResourceID:    resourceID,
		Metadata:      meta,
		PayloadDigest: audit.DigestJSON(meta),
		IP:            audit.ClientIP(r),
		UserAgent:     r.UserAgent(),
		CreatedAt:     time.Now().UTC(),
	}
	if err := h.audits.Log(r.Context(), entry); err != nil && h.logger != nil {
		h.logger.Printf("audit log failed action=%s: %v", action, err)
	}
}

func midnightUTC(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
