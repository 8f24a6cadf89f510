package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	alerting "agroalert/internal/alerting/domain"
	alertrepo "agroalert/internal/alerting/infrastructure/postgres"
	"agroalert/internal/auth"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
	exportLimit         = 1000
)

// NotificationsHandler serves notification history, delivery updates and
// file exports.
type NotificationsHandler struct {
	notifications *alertrepo.NotificationRepository
}

// NewNotificationsHandler constructs a handler.
func NewNotificationsHandler(notifications *alertrepo.NotificationRepository) (*NotificationsHandler, error) {
	if notifications == nil {
		return nil, errors.New("notifications handler: nil repo")
	}
	return &NotificationsHandler{notifications: notifications}, nil
}

// ServeHTTP handles /api/v1/users/{userID}/notifications and
// /api/v1/notifications/...
func (h *NotificationsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasPrefix(r.URL.Path, "/api/v1/users/"):
		userID, ok := userNotificationsPath(r.URL.Path)
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleList(w, r, userID)
	case r.URL.Path == "/api/v1/notifications/export.xlsx":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExportXLSX(w, r)
	case r.URL.Path == "/api/v1/notifications/export.pdf":
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h.handleExportPDF(w, r)
	case strings.HasPrefix(r.URL.Path, "/api/v1/notifications/") && strings.HasSuffix(r.URL.Path, "/deliver"):
		if r.Method != http.MethodPatch {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		id := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/api/v1/notifications/"), "/deliver")
		if id == "" || strings.Contains(id, "/") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		h.handleDeliver(w, r, id)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *NotificationsHandler) handleList(w http.ResponseWriter, r *http.Request, userID string) {
	// Farmers may only read their own history.
	role := auth.RoleFromContext(r.Context())
	if !auth.RoleAtLeast(role, auth.RoleOperator) {
		if caller := auth.UserIDFromContext(r.Context()); caller != "" && caller != userID {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
	}

	query := r.URL.Query()
	action := query.Get("type")
	if action != "" && !alerting.ValidAction(action) {
		http.Error(w, "unknown notification type", http.StatusBadRequest)
		return
	}
	limit := queryInt(query.Get("limit"), defaultHistoryLimit)
	if limit < 1 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}
	offset := queryInt(query.Get("offset"), 0)
	if offset < 0 {
		offset = 0
	}

	notifications, err := h.notifications.ListByUser(r.Context(), userID, action, limit, offset)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if notifications == nil {
		notifications = []alerting.Notification{}
	}
	respondJSON(w, http.StatusOK, notifications)
}

func (h *NotificationsHandler) handleDeliver(w http.ResponseWriter, r *http.Request, id string) {
	notification, err := h.notifications.MarkDelivered(r.Context(), id, time.Now().UTC())
	if err != nil {
		respondRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, notification)
}

func (h *NotificationsHandler) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notifications.ListRecent(r.Context(), exportLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := BuildNotificationsXLSX(notifications)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("xlsx")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (h *NotificationsHandler) handleExportPDF(w http.ResponseWriter, r *http.Request) {
	notifications, err := h.notifications.ListRecent(r.Context(), exportLimit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	data, err := BuildNotificationsPDF(notifications)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportFilename("pdf")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func exportFilename(ext string) string {
	return fmt.Sprintf("notifications-%s.%s", time.Now().UTC().Format("20060102"), ext)
}

// userNotificationsPath matches /api/v1/users/{userID}/notifications.
func userNotificationsPath(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/users/")
	parts := strings.Split(rest, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] != "notifications" {
		return "", false
	}
	return parts[0], true
}

func queryInt(raw string, fallback int) int {
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
