package http

import (
	"bytes"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	alerting "agroalert/internal/alerting/domain"
)

func sampleNotifications() []alerting.Notification {
	base := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	return []alerting.Notification{
		{
			ID:            "n-1",
			AlertConfigID: "ac-1",
			ForecastID:    "w-1",
			Action:        alerting.ActionRiskIncreased,
			Probability:   0.85,
			Status:        alerting.StatusPending,
			Message:       "⚠️ Alerta: probabilidad de helada 85% en campo La Esperanza para el 2026-03-12. Umbral: 70%.",
			TriggeredAt:   base,
		},
		{
			ID:            "n-2",
			AlertConfigID: "ac-1",
			ForecastID:    "w-1",
			Action:        alerting.ActionRiskEnded,
			Probability:   0.40,
			PreviousID:    "n-1",
			Status:        alerting.StatusDelivered,
			Message:       "✅ Riesgo mitigado: probabilidad de helada bajó del 85% al 40% en campo La Esperanza para el 2026-03-12. Ya no supera tu umbral de 70%.",
			TriggeredAt:   base.Add(time.Hour),
			DeliveredAt:   base.Add(2 * time.Hour),
		},
	}
}

func TestBuildNotificationsPDF(t *testing.T) {
	data, err := BuildNotificationsPDF(sampleNotifications())
	if err != nil {
		t.Fatalf("build pdf: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("expected PDF header, got %q", data[:min(8, len(data))])
	}
}

func TestBuildNotificationsXLSX(t *testing.T) {
	data, err := BuildNotificationsXLSX(sampleNotifications())
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	// XLSX files are zip archives.
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Fatalf("expected zip header, got %q", data[:min(4, len(data))])
	}
}

func TestBuildNotificationsXLSXEmpty(t *testing.T) {
	data, err := BuildNotificationsXLSX(nil)
	if err != nil {
		t.Fatalf("build xlsx: %v", err)
	}
	if len(data) == 0 {
		t.Fatal("expected non-empty workbook")
	}
}

func TestTruncateCellKeepsRunesIntact(t *testing.T) {
	msg := "⚠️ Alerta: probabilidad de sequía 90% en campo Campo Primavera para el 2026-03-12. Umbral: 70%. Subió del 80% al 90%"
	got := truncateCell(msg, 40)
	if !utf8.ValidString(got) {
		t.Fatalf("truncated message is not valid UTF-8: %q", got)
	}
	if want := 40; len([]rune(got)) != want {
		t.Errorf("rune length = %d, want %d", len([]rune(got)), want)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got)
	}

	short := "✅ Riesgo mitigado"
	if got := truncateCell(short, 40); got != short {
		t.Errorf("short message altered: %q", got)
	}
}

func TestFieldAlertsPath(t *testing.T) {
	cases := []struct {
		path    string
		fieldID string
		ok      bool
	}{
		{"/api/v1/fields/f-1/alerts", "f-1", true},
		{"/api/v1/fields/f-1/alerts/extra", "", false},
		{"/api/v1/fields//alerts", "", false},
		{"/api/v1/fields/f-1", "", false},
	}
	for _, tc := range cases {
		fieldID, ok := fieldAlertsPath(tc.path)
		if ok != tc.ok || fieldID != tc.fieldID {
			t.Errorf("fieldAlertsPath(%q) = (%q, %v), want (%q, %v)", tc.path, fieldID, ok, tc.fieldID, tc.ok)
		}
	}
}

func TestUserNotificationsPath(t *testing.T) {
	cases := []struct {
		path   string
		userID string
		ok     bool
	}{
		{"/api/v1/users/u-1/notifications", "u-1", true},
		{"/api/v1/users/u-1/alerts", "", false},
		{"/api/v1/users//notifications", "", false},
	}
	for _, tc := range cases {
		userID, ok := userNotificationsPath(tc.path)
		if ok != tc.ok || userID != tc.userID {
			t.Errorf("userNotificationsPath(%q) = (%q, %v), want (%q, %v)", tc.path, userID, ok, tc.userID, tc.ok)
		}
	}
}
