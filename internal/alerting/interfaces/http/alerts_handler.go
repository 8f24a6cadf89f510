package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	alerting "agroalert/internal/alerting/domain"
	alertrepo "agroalert/internal/alerting/infrastructure/postgres"
	"agroalert/internal/auth"
	forecast "agroalert/internal/forecast/domain"

	"github.com/google/uuid"
)

// AlertsHandler provides alert config CRUD endpoints.
type AlertsHandler struct {
	configs *alertrepo.AlertConfigRepository
	owners  auth.FieldOwnerChecker
}

// NewAlertsHandler constructs a handler.
func NewAlertsHandler(configs *alertrepo.AlertConfigRepository, owners auth.FieldOwnerChecker) (*AlertsHandler, error) {
	if configs == nil {
		return nil, errors.New("alerts handler: nil config repo")
	}
	return &AlertsHandler{configs: configs, owners: owners}, nil
}

// ServeHTTP handles /api/v1/fields/{fieldID}/alerts and /api/v1/alerts/{id}.
func (h *AlertsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/fields/"):
		fieldID, ok := fieldAlertsPath(r.URL.Path)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPost:
			h.handleCreate(w, r, fieldID)
		case http.MethodGet:
			h.handleList(w, r, fieldID)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	case strings.HasPrefix(r.URL.Path, "/api/v1/alerts/"):
		id := strings.TrimPrefix(r.URL.Path, "/api/v1/alerts/")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Method {
		case http.MethodPatch:
			h.handleUpdate(w, r, id)
		case http.MethodDelete:
			h.handleDelete(w, r, id)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

type createAlertRequest struct {
	EventType string  `json:"event_type"`
	Threshold float64 `json:"threshold"`
}

func (h *AlertsHandler) handleCreate(w http.ResponseWriter, r *http.Request, fieldID string) {
	if err := h.ensureOwner(r, fieldID); err != nil {
		respondOwnerError(w, err)
		return
	}

	var payload createAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if !forecast.ValidEventType(payload.EventType) {
		http.Error(w, "unknown event type", http.StatusBadRequest)
		return
	}
	if payload.Threshold < 0 || payload.Threshold > 1 {
		http.Error(w, "threshold must be within [0, 1]", http.StatusBadRequest)
		return
	}

	config := &alerting.AlertConfig{
		ID:        uuid.NewString(),
		FieldID:   fieldID,
		EventType: payload.EventType,
		Threshold: payload.Threshold,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.configs.Create(r.Context(), config); err != nil {
		if errors.Is(err, alerting.ErrDuplicateConfig) {
			http.Error(w, "alert for this field and event type already exists; use PATCH to update", http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	respondJSON(w, http.StatusCreated, config)
}

func (h *AlertsHandler) handleList(w http.ResponseWriter, r *http.Request, fieldID string) {
	if err := h.ensureOwner(r, fieldID); err != nil {
		respondOwnerError(w, err)
		return
	}
	configs, err := h.configs.ListByField(r.Context(), fieldID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if configs == nil {
		configs = []alerting.AlertConfig{}
	}
	respondJSON(w, http.StatusOK, configs)
}

type updateAlertRequest struct {
	Threshold *float64 `json:"threshold"`
	IsActive  *bool    `json:"is_active"`
}

func (h *AlertsHandler) handleUpdate(w http.ResponseWriter, r *http.Request, id string) {
	config, err := h.configs.GetByID(r.Context(), id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	if err := h.ensureOwner(r, config.FieldID); err != nil {
		respondOwnerError(w, err)
		return
	}

	var payload updateAlertRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	updated, err := h.configs.Update(r.Context(), id, payload.Threshold, payload.IsActive)
	if err != nil {
		if errors.Is(err, alerting.ErrThresholdRange) {
			http.Error(w, "threshold must be within [0, 1]", http.StatusBadRequest)
			return
		}
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, updated)
}

func (h *AlertsHandler) handleDelete(w http.ResponseWriter, r *http.Request, id string) {
	config, err := h.configs.GetByID(r.Context(), id)
	if err != nil {
		respondRepoError(w, err)
		return
	}
	if err := h.ensureOwner(r, config.FieldID); err != nil {
		respondOwnerError(w, err)
		return
	}
	if err := h.configs.Delete(r.Context(), id); err != nil {
		respondRepoError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ensureOwner restricts farmers to fields they own. Operators and admins
// pass unchecked.
func (h *AlertsHandler) ensureOwner(r *http.Request, fieldID string) error {
	if h.owners == nil {
		return nil
	}
	role := auth.RoleFromContext(r.Context())
	if auth.RoleAtLeast(role, auth.RoleOperator) {
		return nil
	}
	userID := auth.UserIDFromContext(r.Context())
	if userID == "" {
		return nil
	}
	return h.owners.EnsureFieldOwner(r.Context(), userID, fieldID)
}

// fieldAlertsPath matches /api/v1/fields/{fieldID}/alerts.
func fieldAlertsPath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/fields/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "alerts" {
		return "", false
	}
	return parts[0], true
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondRepoError(w http.ResponseWriter, err error) {
	if errors.Is(err, alerting.ErrNotFound) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func respondOwnerError(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, auth.ErrNotFound):
		http.Error(w, "field not found", http.StatusNotFound)
	case errors.Is(err, auth.ErrOwnerMismatch):
		http.Error(w, "forbidden", http.StatusForbidden)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
