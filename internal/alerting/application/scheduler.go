package application

import (
	"context"
	"log"
	"time"
)

// Scheduler triggers evaluation runs on a fixed interval. A run that fails
// is only retried by the next tick; there is no internal retry loop.
type Scheduler struct {
	evaluator *Evaluator
	interval  time.Duration
	logger    *log.Logger
}

// NewScheduler constructs a Scheduler.
func NewScheduler(evaluator *Evaluator, interval time.Duration, logger *log.Logger) *Scheduler {
	return &Scheduler{
		evaluator: evaluator,
		interval:  interval,
		logger:    logger,
	}
}

// Start begins the scheduler loop.
func (s *Scheduler) Start(ctx context.Context) {
	if s == nil || s.evaluator == nil || s.interval <= 0 {
		return
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.runOnce(ctx, now.UTC())
		}
	}
}

func (s *Scheduler) runOnce(ctx context.Context, now time.Time) {
	referenceDate := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	start := time.Now()
	result, err := s.evaluator.Evaluate(ctx, referenceDate)
	elapsed := time.Since(start)
	if err != nil {
		s.logf("scheduled evaluation failed after %s: %v", elapsed.Round(time.Millisecond), err)
		return
	}
	if result.Locked {
		s.logf("scheduled evaluation skipped: lock held elsewhere")
		return
	}
	s.logf("scheduled evaluation completed in %s: evaluated=%d created=%d skipped=%d",
		elapsed.Round(time.Millisecond), result.Evaluated, result.Created, result.Skipped)
	if elapsed > s.interval*4/5 {
		s.logf("evaluation took %s, approaching the %s interval", elapsed.Round(time.Second), s.interval)
	}
}

func (s *Scheduler) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
