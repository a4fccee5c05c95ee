package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"punchclock/pkg/platform/backoff"
)

// OutboxReader is the relay's view of the outbox.
type OutboxReader interface {
	FetchUnpublished(ctx context.Context, limit int) ([]OutboxEntry, error)
	MarkPublished(ctx context.Context, ids []uuid.UUID) error
}

// Sink receives relayed rows, typically a Kafka producer.
type Sink interface {
	Produce(ctx context.Context, key string, value []byte, headers map[string]string) error
}

const (
	defaultRelayInterval  = time.Second
	defaultRelayBatchSize = 100
)

// Relay drains the outbox into a Sink. Rows are marked published only after
// the sink accepted them, so delivery is at-least-once.
type Relay struct {
	outbox    OutboxReader
	sink      Sink
	interval  time.Duration
	batchSize int
	backoff   *backoff.Tracker
	logger    *slog.Logger
	now       func() time.Time
}

type RelayOption func(*Relay)

func WithRelayInterval(d time.Duration) RelayOption {
	return func(r *Relay) {
		if d > 0 {
			r.interval = d
		}
	}
}

func WithRelayBatchSize(n int) RelayOption {
	return func(r *Relay) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func WithRelayBackoff(policy backoff.Policy) RelayOption {
	return func(r *Relay) {
		r.backoff = backoff.NewTracker("outbox_relay", policy)
	}
}

func WithRelayLogger(logger *slog.Logger) RelayOption {
	return func(r *Relay) {
		if logger != nil {
			r.logger = logger
		}
	}
}

func NewRelay(outbox OutboxReader, sink Sink, opts ...RelayOption) (*Relay, error) {
	if outbox == nil {
		return nil, fmt.Errorf("outbox reader is required")
	}
	if sink == nil {
		return nil, fmt.Errorf("relay sink is required")
	}
	r := &Relay{
		outbox:    outbox,
		sink:      sink,
		interval:  defaultRelayInterval,
		batchSize: defaultRelayBatchSize,
		backoff:   backoff.NewTracker("outbox_relay", backoff.DefaultPolicy()),
		logger:    slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Run polls until ctx is cancelled. Failed polls delay the next one per the
// backoff policy.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if ready, _ := r.backoff.Ready(r.now()); !ready {
				continue
			}
			if _, err := r.RelayOnce(ctx); err != nil {
				delay, _ := r.backoff.RecordFailure(r.now())
				r.logger.WarnContext(ctx, "outbox relay failed",
					"error", err,
					"failures", r.backoff.Failures(),
					"retry_in", delay,
				)
				continue
			}
			r.backoff.RecordSuccess()
		}
	}
}

// RelayOnce forwards one batch and returns how many rows were delivered.
// Delivery stops at the first sink failure; rows sent before it are still
// acknowledged.
func (r *Relay) RelayOnce(ctx context.Context) (int, error) {
	entries, err := r.outbox.FetchUnpublished(ctx, r.batchSize)
	if err != nil {
		return 0, err
	}

	sent := make([]uuid.UUID, 0, len(entries))
	var sinkErr error
	for _, e := range entries {
		headers := map[string]string{"event_type": e.EventType, "outbox_id": e.ID.String()}
		if err := r.sink.Produce(ctx, e.AggregateID, e.Payload, headers); err != nil {
			sinkErr = fmt.Errorf("relay outbox entry %s: %w", e.ID, err)
			break
		}
		sent = append(sent, e.ID)
	}

	if err := r.outbox.MarkPublished(ctx, sent); err != nil {
		return 0, err
	}
	return len(sent), sinkErr
}
