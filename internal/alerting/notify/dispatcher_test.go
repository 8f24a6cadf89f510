package notify

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	alerting "agroalert/internal/alerting/domain"
)

type stubQueue struct {
	mu        sync.Mutex
	pending   []alerting.Notification
	delivered []string
	failed    []string
}

func (s *stubQueue) ListPending(_ context.Context, limit int) ([]alerting.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.pending) > limit {
		return s.pending[:limit], nil
	}
	return s.pending, nil
}

func (s *stubQueue) MarkDelivered(_ context.Context, id string, deliveredAt time.Time) (*alerting.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delivered = append(s.delivered, id)
	return &alerting.Notification{ID: id, Status: alerting.StatusDelivered, DeliveredAt: deliveredAt}, nil
}

func (s *stubQueue) MarkFailed(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, id)
	return nil
}

func TestWebhookChannelPayload(t *testing.T) {
	payloadCh := make(chan webhookPayload, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		var payload webhookPayload
		if err := json.Unmarshal(body, &payload); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		payloadCh <- payload
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	notification := alerting.Notification{
		ID:          "n-wh",
		Action:      alerting.ActionRiskIncreased,
		Probability: 0.85,
		Message:     "⚠️ Alerta: probabilidad de helada 85% en campo La Esperanza para el 2026-03-12. Umbral: 70%.",
		TriggeredAt: time.Date(2026, 3, 10, 6, 0, 0, 0, time.UTC),
	}
	if err := channel.Send(context.Background(), notification); err != nil {
		t.Fatalf("send: %v", err)
	}

	select {
	case payload := <-payloadCh:
		if payload.NotificationID != "n-wh" {
			t.Errorf("notification id = %q", payload.NotificationID)
		}
		if payload.Type != alerting.ActionRiskIncreased {
			t.Errorf("type = %q", payload.Type)
		}
		if payload.Message != notification.Message {
			t.Errorf("message = %q", payload.Message)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("webhook not called")
	}
}

func TestWebhookChannelNon2xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	channel, err := NewWebhookChannel(server.URL)
	if err != nil {
		t.Fatalf("new channel: %v", err)
	}
	if err := channel.Send(context.Background(), alerting.Notification{ID: "n-err"}); err == nil {
		t.Fatal("expected error on 502 response")
	}
}

type flakyChannel struct {
	failIDs map[string]bool
	sent    []string
}

func (c *flakyChannel) Send(_ context.Context, notification alerting.Notification) error {
	if c.failIDs[notification.ID] {
		return context.DeadlineExceeded
	}
	c.sent = append(c.sent, notification.ID)
	return nil
}

func TestDispatchOnceMarksOutcomes(t *testing.T) {
	queue := &stubQueue{pending: []alerting.Notification{
		{ID: "n-ok-1", Status: alerting.StatusPending},
		{ID: "n-bad", Status: alerting.StatusPending},
		{ID: "n-ok-2", Status: alerting.StatusPending},
	}}
	channel := &flakyChannel{failIDs: map[string]bool{"n-bad": true}}

	dispatcher, err := NewDispatcher(queue, channel, time.Minute, nil)
	if err != nil {
		t.Fatalf("new dispatcher: %v", err)
	}
	dispatcher.DispatchOnce(context.Background())

	if len(queue.delivered) != 2 {
		t.Fatalf("delivered = %v, want 2 entries", queue.delivered)
	}
	if len(queue.failed) != 1 || queue.failed[0] != "n-bad" {
		t.Fatalf("failed = %v, want [n-bad]", queue.failed)
	}
	if len(channel.sent) != 2 {
		t.Fatalf("sent = %v", channel.sent)
	}
}
