package notify

import (
	"context"
	"errors"
	"log"
	"time"

	alerting "agroalert/internal/alerting/domain"
)

// Queue is the pending-notification store the dispatcher drains.
type Queue interface {
	ListPending(ctx context.Context, limit int) ([]alerting.Notification, error)
	MarkDelivered(ctx context.Context, id string, deliveredAt time.Time) (*alerting.Notification, error)
	MarkFailed(ctx context.Context, id string) error
}

// Dispatcher drains pending notifications through a channel on an interval.
// A send failure marks the row failed and moves on; one bad receiver must
// not block the queue.
type Dispatcher struct {
	queue    Queue
	channel  Channel
	interval time.Duration
	batch    int
	logger   *log.Logger
}

// NewDispatcher constructs a dispatcher.
func NewDispatcher(queue Queue, channel Channel, interval time.Duration, logger *log.Logger) (*Dispatcher, error) {
	if queue == nil {
		return nil, errors.New("dispatcher: nil queue")
	}
	if channel == nil {
		return nil, errors.New("dispatcher: nil channel")
	}
	if interval <= 0 {
		interval = time.Minute
	}
	return &Dispatcher{
		queue:    queue,
		channel:  channel,
		interval: interval,
		batch:    100,
		logger:   logger,
	}, nil
}

// Start runs the dispatch loop until the context is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	if d == nil {
		return
	}
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.DispatchOnce(ctx)
		}
	}
}

// DispatchOnce drains one batch of pending notifications.
func (d *Dispatcher) DispatchOnce(ctx context.Context) {
	pending, err := d.queue.ListPending(ctx, d.batch)
	if err != nil {
		d.logf("dispatch list error: %v", err)
		return
	}
	for _, notification := range pending {
		if err := d.channel.Send(ctx, notification); err != nil {
			d.logf("dispatch send failed id=%s: %v", notification.ID, err)
			if err := d.queue.MarkFailed(ctx, notification.ID); err != nil {
				d.logf("dispatch mark failed error id=%s: %v", notification.ID, err)
			}
			continue
		}
		if _, err := d.queue.MarkDelivered(ctx, notification.ID, time.Now().UTC()); err != nil {
			d.logf("dispatch mark delivered error id=%s: %v", notification.ID, err)
		}
	}
}

func (d *Dispatcher) logf(format string, args ...any) {
	if d.logger != nil {
		d.logger.Printf(format, args...)
	}
}
