package application

import (
	"strings"
	"testing"
	"time"

	alerting "agroalert/internal/alerting/domain"
)

var testDate = time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

func TestBuildMessageTruncatesPercent(t *testing.T) {
	msg := BuildMessage(alerting.ActionRiskIncreased, "frost", "Campo La Esperanza", testDate, 0.849, 0, false, 0.70)
	if !strings.Contains(msg, "84%") {
		t.Fatalf("expected truncated 84%%, got %q", msg)
	}
	if strings.Contains(msg, "85%") {
		t.Fatalf("expected truncation not rounding, got %q", msg)
	}
}

func TestBuildMessageFirstAlertOmitsDelta(t *testing.T) {
	msg := BuildMessage(alerting.ActionRiskIncreased, "frost", "Campo La Esperanza", testDate, 0.85, 0, false, 0.70)
	if strings.Contains(msg, "Subió") {
		t.Fatalf("first alert must omit the rose-from clause: %q", msg)
	}
	if strings.HasSuffix(msg, " ") {
		t.Fatalf("message has trailing whitespace: %q", msg)
	}
	want := "⚠️ Alerta: probabilidad de helada 85% en campo Campo La Esperanza para el 2026-03-14. Umbral: 70%."
	if msg != want {
		t.Fatalf("got %q, want %q", msg, want)
	}
}

func TestBuildMessageRepeatAlertIncludesDelta(t *testing.T) {
	msg := BuildMessage(alerting.ActionRiskIncreased, "hail", "Campo Primavera", testDate, 0.90, 0.72, true, 0.70)
	if !strings.Contains(msg, "Subió del 72% al 90%") {
		t.Fatalf("expected rose-from clause, got %q", msg)
	}
}

func TestBuildMessageRiskEnded(t *testing.T) {
	msg := BuildMessage(alerting.ActionRiskEnded, "drought", "Campo Primavera", testDate, 0.60, 0.85, true, 0.70)
	want := "✅ Riesgo mitigado: probabilidad de sequía bajó del 85% al 60% en campo Campo Primavera para el 2026-03-14. Ya no supera tu umbral de 70%."
	if msg != want {
		t.Fatalf("got %q, want %q", msg, want)
	}
}

func TestBuildMessageUnknownEventTypeFallsBack(t *testing.T) {
	msg := BuildMessage(alerting.ActionRiskIncreased, "locust_swarm", "Campo Primavera", testDate, 0.80, 0, false, 0.50)
	if !strings.Contains(msg, "locust_swarm") {
		t.Fatalf("expected raw code fallback, got %q", msg)
	}
}
