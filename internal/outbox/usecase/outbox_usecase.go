// Package usecase implements the outbox relay: it claims pending events and
// dispatches them to type-specific handlers.
package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/mailmind/mailmind/internal/errors"
	"github.com/mailmind/mailmind/internal/metrics"
	"github.com/mailmind/mailmind/internal/outbox/domain"
)

// Config holds outbox relay configuration
type Config struct {
	Interval   time.Duration
	BatchSize  int
	ClaimLease time.Duration
}

// OutboxEventRepository defines outbox event repository operations
type OutboxEventRepository interface {
	Create(ctx context.Context, event *domain.OutboxEvent) error
	NextPending(ctx context.Context) (*domain.OutboxEvent, error)
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	MarkDone(ctx context.Context, id uuid.UUID) error
	MarkFailed(ctx context.Context, id uuid.UUID, message string) error
	Reclaim(ctx context.Context, lease time.Duration) (int64, error)
}

// EventHandler processes one decoded event payload. A handler error marks the
// event FAILED; there is no automatic retry.
type EventHandler interface {
	Handle(ctx context.Context, payload domain.Payload) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(ctx context.Context, payload domain.Payload) error

// Handle calls f(ctx, payload).
func (f EventHandlerFunc) Handle(ctx context.Context, payload domain.Payload) error {
	return f(ctx, payload)
}

// DispatchOutcome classifies the result of a single dispatch attempt.
type DispatchOutcome string

const (
	// OutcomeNoWork means no pending event existed, or another instance
	// claimed it first. Not an error.
	OutcomeNoWork DispatchOutcome = "no_work"
	// OutcomeDispatched means the event reached a terminal DONE state.
	OutcomeDispatched DispatchOutcome = "dispatched"
	// OutcomeFailed means the event reached a terminal FAILED state.
	OutcomeFailed DispatchOutcome = "failed"
)

// DispatchResult reports what a DispatchNext call did. Err is set only for
// OutcomeFailed and carries the handler or decode failure.
type DispatchResult struct {
	Outcome DispatchOutcome
	EventID uuid.UUID
	Err     error
}

// UseCase defines the interface for the outbox relay
type UseCase interface {
	RegisterHandler(eventType domain.EventType, handler EventHandler)
	DispatchNext(ctx context.Context) (DispatchResult, error)
	Start(ctx context.Context) error
}

// OutboxRelay implements the relay over a repository and a handler registry.
// It is safe to run from multiple process instances concurrently: ownership of
// each event is decided by the repository's conditional-update claim.
type OutboxRelay struct {
	config   Config
	repo     OutboxEventRepository
	handlers map[domain.EventType]EventHandler
	logger   *slog.Logger
	metrics  metrics.BusinessMetrics
}

// NewOutboxRelay creates a new OutboxRelay
func NewOutboxRelay(
	config Config,
	repo OutboxEventRepository,
	logger *slog.Logger,
	businessMetrics metrics.BusinessMetrics,
) *OutboxRelay {
	if businessMetrics == nil {
		businessMetrics = metrics.NewNoOpBusinessMetrics()
	}
	return &OutboxRelay{
		config:   config,
		repo:     repo,
		handlers: make(map[domain.EventType]EventHandler),
		logger:   logger,
		metrics:  businessMetrics,
	}
}

// RegisterHandler binds a handler to an event type. Call before Start.
func (r *OutboxRelay) RegisterHandler(eventType domain.EventType, handler EventHandler) {
	r.handlers[eventType] = handler
}

// DispatchNext claims the oldest pending event and runs its handler. A claim
// miss (another instance won the row) is reported as OutcomeNoWork, not an
// error. The returned error is reserved for storage failures.
func (r *OutboxRelay) DispatchNext(ctx context.Context) (DispatchResult, error) {
	event, err := r.repo.NextPending(ctx)
	if err != nil {
		if apperrors.Is(err, domain.ErrEventNotFound) {
			return DispatchResult{Outcome: OutcomeNoWork}, nil
		}
		return DispatchResult{Outcome: OutcomeNoWork}, err
	}

	claimed, err := r.repo.Claim(ctx, event.ID)
	if err != nil {
		return DispatchResult{Outcome: OutcomeNoWork}, err
	}
	if !claimed {
		// Another instance claimed the event between select and update.
		return DispatchResult{Outcome: OutcomeNoWork}, nil
	}

	payload, err := event.DecodePayload()
	if err != nil {
		return r.fail(ctx, event, err)
	}

	if unknown, ok := payload.(domain.UnknownPayload); ok {
		// Unknown types are terminal without retry: nothing in this build
		// will ever understand them, so reprocessing is pointless.
		r.logger.Warn("unknown event type",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(unknown.Type)),
		)
		return r.done(ctx, event)
	}

	handler, ok := r.handlers[event.EventType]
	if !ok {
		r.logger.Warn("no handler registered for event type",
			slog.String("event_id", event.ID.String()),
			slog.String("event_type", string(event.EventType)),
		)
		return r.done(ctx, event)
	}

	r.logger.Info("dispatching event",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", string(event.EventType)),
	)

	start := time.Now()
	if err := handler.Handle(ctx, payload); err != nil {
		r.metrics.RecordDuration(ctx, "outbox", "dispatch", time.Since(start), "error")
		return r.fail(ctx, event, err)
	}
	r.metrics.RecordDuration(ctx, "outbox", "dispatch", time.Since(start), "success")

	return r.done(ctx, event)
}

// Start runs the relay polling loop until the context is cancelled. Individual
// event failures never stop the loop.
func (r *OutboxRelay) Start(ctx context.Context) error {
	r.logger.Info("starting outbox relay",
		slog.Duration("interval", r.config.Interval),
		slog.Int("batch_size", r.config.BatchSize),
	)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("stopping outbox relay")
			return ctx.Err()
		case <-ticker.C:
			r.tick(ctx)
		}
	}
}

// tick reclaims expired claims, then dispatches up to BatchSize events.
func (r *OutboxRelay) tick(ctx context.Context) {
	if r.config.ClaimLease > 0 {
		reclaimed, err := r.repo.Reclaim(ctx, r.config.ClaimLease)
		if err != nil {
			r.logger.Error("failed to reclaim expired event claims", slog.Any("error", err))
		} else if reclaimed > 0 {
			r.logger.Warn("reclaimed orphaned events", slog.Int64("count", reclaimed))
		}
	}

	for i := 0; i < r.config.BatchSize; i++ {
		result, err := r.DispatchNext(ctx)
		if err != nil {
			r.logger.Error("failed to dispatch event", slog.Any("error", err))
			return
		}

		switch result.Outcome {
		case OutcomeNoWork:
			return
		case OutcomeFailed:
			r.logger.Error("event handling failed",
				slog.String("event_id", result.EventID.String()),
				slog.Any("error", result.Err),
			)
		case OutcomeDispatched:
		}
	}
}

func (r *OutboxRelay) done(ctx context.Context, event *domain.OutboxEvent) (DispatchResult, error) {
	if err := r.repo.MarkDone(ctx, event.ID); err != nil {
		return DispatchResult{Outcome: OutcomeNoWork, EventID: event.ID}, err
	}
	r.metrics.RecordOperation(ctx, "outbox", "dispatch", "success")
	return DispatchResult{Outcome: OutcomeDispatched, EventID: event.ID}, nil
}

func (r *OutboxRelay) fail(ctx context.Context, event *domain.OutboxEvent, cause error) (DispatchResult, error) {
	if err := r.repo.MarkFailed(ctx, event.ID, cause.Error()); err != nil {
		return DispatchResult{Outcome: OutcomeNoWork, EventID: event.ID}, err
	}
	r.metrics.RecordOperation(ctx, "outbox", "dispatch", "error")
	return DispatchResult{Outcome: OutcomeFailed, EventID: event.ID, Err: cause}, nil
}
