package application

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	alerting "agroalert/internal/alerting/domain"
	forecast "agroalert/internal/forecast/domain"
	"agroalert/internal/observability/metrics"

	"github.com/google/uuid"
)

// Candidate pairs one active alert config with a matching forecast record,
// plus the latest prior notification for that exact pair when one exists.
type Candidate struct {
	Config    alerting.AlertConfig
	Forecast  forecast.Record
	FieldName string
	Previous  *alerting.Notification
}

// CandidateResolver lists evaluation candidates. Read-only.
type CandidateResolver interface {
	ListCandidates(ctx context.Context, referenceDate time.Time) ([]Candidate, error)
}

// NotificationWriter persists one run's notifications as a single atomic
// batch: either every row lands or none do.
type NotificationWriter interface {
	CreateBatch(ctx context.Context, notifications []*alerting.Notification) error
}

// RunGuard is the cross-process mutual exclusion around one evaluation run.
// TryAcquire never blocks; Release never propagates failure.
type RunGuard interface {
	TryAcquire(ctx context.Context) bool
	Release(ctx context.Context)
}

// Clock provides time.
type Clock interface {
	Now() time.Time
}

// Result aggregates one evaluation run.
type Result struct {
	Evaluated int  `json:"evaluated"`
	Created   int  `json:"notifications_created"`
	Skipped   int  `json:"skipped"`
	Locked    bool `json:"locked"`
}

// Evaluator drives evaluation runs: resolve candidates, decide transitions,
// format and persist qualifying notifications.
type Evaluator struct {
	resolver       CandidateResolver
	writer         NotificationWriter
	guard          RunGuard
	clock          Clock
	logger         *log.Logger
	deltaThreshold float64
	cooldown       time.Duration
}

// EvaluatorOption customizes the evaluator.
type EvaluatorOption func(*Evaluator)

// WithClock assigns a clock.
func WithClock(clock Clock) EvaluatorOption {
	return func(e *Evaluator) {
		if clock != nil {
			e.clock = clock
		}
	}
}

// WithLogger assigns a logger.
func WithLogger(logger *log.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// NewEvaluator constructs an evaluator.
func NewEvaluator(resolver CandidateResolver, writer NotificationWriter, guard RunGuard, deltaThreshold float64, cooldown time.Duration, opts ...EvaluatorOption) (*Evaluator, error) {
	if resolver == nil {
		return nil, errors.New("evaluator: nil resolver")
	}
	if writer == nil {
		return nil, errors.New("evaluator: nil notification writer")
	}
	if guard == nil {
		return nil, errors.New("evaluator: nil run guard")
	}
	if deltaThreshold < 0 || deltaThreshold > 1 {
		return nil, errors.New("evaluator: delta threshold out of range")
	}
	if cooldown < 0 {
		return nil, errors.New("evaluator: negative cooldown")
	}
	e := &Evaluator{
		resolver:       resolver,
		writer:         writer,
		guard:          guard,
		clock:          systemClock{},
		deltaThreshold: deltaThreshold,
		cooldown:       cooldown,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Evaluate runs one evaluation cycle for referenceDate. When another
// instance holds the guard the run is a no-op reported via Locked; lock
// contention is a normal skip, not an error. The guard is released on
// every exit path.
func (e *Evaluator) Evaluate(ctx context.Context, referenceDate time.Time) (Result, error) {
	if e == nil {
		return Result{}, errors.New("evaluator: nil")
	}
	if referenceDate.IsZero() {
		now := e.clock.Now().UTC()
		referenceDate = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	}

	if !e.guard.TryAcquire(ctx) {
		metrics.IncEvaluationRun(metrics.RunLocked)
		e.logf("evaluation skipped: another instance holds the lock")
		return Result{Locked: true}, nil
	}
	defer e.guard.Release(ctx)

	start := e.clock.Now()
	result, err := e.run(ctx, referenceDate)
	metrics.ObserveEvaluationDuration(e.clock.Now().Sub(start).Seconds())
	if err != nil {
		metrics.IncEvaluationRun(metrics.RunError)
		return Result{}, err
	}
	metrics.IncEvaluationRun(metrics.RunCompleted)
	return result, nil
}

func (e *Evaluator) run(ctx context.Context, referenceDate time.Time) (Result, error) {
	candidates, err := e.resolver.ListCandidates(ctx, referenceDate)
	if err != nil {
		return Result{}, fmt.Errorf("evaluator: resolve candidates: %w", err)
	}

	now := e.clock.Now().UTC()
	result := Result{Evaluated: len(candidates)}
	var batch []*alerting.Notification

	for _, candidate := range candidates {
		notification, err := e.decide(candidate, now)
		if err != nil {
			return Result{}, err
		}
		if notification == nil {
			result.Skipped++
			continue
		}
		batch = append(batch, notification)
		result.Created++
	}

	if len(batch) > 0 {
		if err := e.writer.CreateBatch(ctx, batch); err != nil {
			return Result{}, fmt.Errorf("evaluator: persist notifications: %w", err)
		}
		for _, notification := range batch {
			metrics.IncNotificationCreated(notification.Action)
			e.logf("notification created: action=%s config=%s forecast=%s", notification.Action, notification.AlertConfigID, notification.ForecastID)
		}
	}

	return result, nil
}

func (e *Evaluator) decide(candidate Candidate, now time.Time) (*alerting.Notification, error) {
	prob := candidate.Forecast.Probability
	threshold := candidate.Config.Threshold
	if prob < 0 || prob > 1 {
		return nil, fmt.Errorf("%w: forecast %s has %v", alerting.ErrProbabilityRange, candidate.Forecast.ID, prob)
	}
	if threshold < 0 || threshold > 1 {
		return nil, fmt.Errorf("%w: config %s has %v", alerting.ErrThresholdRange, candidate.Config.ID, threshold)
	}

	transition := alerting.Transition{
		IsAbove:     alerting.IsAbove(prob, threshold),
		CurrentProb: prob,
	}
	if prev := candidate.Previous; prev != nil {
		transition.HasPrevious = true
		// Prior state is classified against the live threshold, from the
		// probability recorded on the prior notification.
		transition.WasAbove = alerting.IsAbove(prev.Probability, threshold)
		transition.PrevProb = prev.Probability
		transition.PrevTriggeredAt = prev.TriggeredAt
	}

	action := alerting.DetermineAction(transition, now, e.deltaThreshold, e.cooldown)
	if action == "" {
		return nil, nil
	}

	message := BuildMessage(
		action,
		candidate.Config.EventType,
		candidate.FieldName,
		candidate.Forecast.EventDate,
		prob,
		transition.PrevProb,
		transition.HasPrevious,
		threshold,
	)

	notification := &alerting.Notification{
		ID:            uuid.NewString(),
		AlertConfigID: candidate.Config.ID,
		ForecastID:    candidate.Forecast.ID,
		Action:        action,
		Probability:   prob,
		Status:        alerting.StatusPending,
		Message:       message,
		TriggeredAt:   now,
	}
	if candidate.Previous != nil {
		notification.PreviousID = candidate.Previous.ID
	}
	return notification, nil
}

func (e *Evaluator) logf(format string, args ...any) {
	if e.logger != nil {
		e.logger.Printf(format, args...)
	}
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }
