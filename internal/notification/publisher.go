package notification

import (
	"context"
	"errors"
	"log/slog"
)

// Publisher delivers an event to one sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Multi fans an event out to every publisher. All publishers are attempted;
// their errors are joined.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, event Event) error {
	var errs []error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the structured log.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, event Event) error {
	p.logger.InfoContext(ctx, "notification",
		"kind", event.Kind,
		"group_id", event.GroupID,
		"worker_id", event.WorkerID,
		"entity_id", event.EntityID,
		"reason", event.Reason,
		"pending_count", event.PendingCount,
	)
	return nil
}

// Notify publishes event and logs a failure instead of returning it. Core
// decisions are already persisted when notifications go out, so a failed
// delivery must not fail the request.
func Notify(ctx context.Context, logger *slog.Logger, publisher Publisher, event Event) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, event); err != nil && logger != nil {
		logger.WarnContext(ctx, "failed to publish notification",
			"kind", event.Kind,
			"entity_id", event.EntityID,
			"error", err,
		)
	}
}
