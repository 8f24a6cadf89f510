package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	alerting "agroalert/internal/alerting/domain"
)

// Channel delivers one notification to an external receiver.
type Channel interface {
	Send(ctx context.Context, notification alerting.Notification) error
}

type webhookPayload struct {
	NotificationID string    `json:"notification_id"`
	Type           string    `json:"type"`
	Probability    float64   `json:"probability"`
	Message        string    `json:"message"`
	TriggeredAt    time.Time `json:"triggered_at"`
}

// WebhookChannel posts notifications as JSON to a webhook endpoint.
type WebhookChannel struct {
	url    string
	client *http.Client
}

// WebhookOption configures the webhook channel.
type WebhookOption func(*WebhookChannel)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) WebhookOption {
	return func(ch *WebhookChannel) {
		if client != nil {
			ch.client = client
		}
	}
}

// NewWebhookChannel constructs a webhook channel.
func NewWebhookChannel(url string, opts ...WebhookOption) (*WebhookChannel, error) {
	if url == "" {
		return nil, errors.New("webhook channel: empty url")
	}
	channel := &WebhookChannel{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send posts the notification payload.
func (w *WebhookChannel) Send(ctx context.Context, notification alerting.Notification) error {
	if w == nil || w.url == "" {
		return errors.New("webhook channel: empty url")
	}
	payload := webhookPayload{
		NotificationID: notification.ID,
		Type:           notification.Action,
		Probability:    notification.Probability,
		Message:        notification.Message,
		TriggeredAt:    notification.TriggeredAt,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := w.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook channel: non-2xx response %d", resp.StatusCode)
	}
	return nil
}
