package service

import (
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/crypto/blake2b"

	"punchclock/internal/punch/location"
	"punchclock/internal/punch/metrics"
	"punchclock/internal/punch/ports"
	"punchclock/pkg/platform/tx"
)

const (
	DefaultDeadline       = 15 * time.Second
	DefaultSignalsTimeout = 5 * time.Second
	DefaultGeocodeTimeout = 4 * time.Second
	// historyLimit bounds how many prior punches the risk scorer sees.
	historyLimit = 50
)

// Service registers punches and answers questions about a worker's day.
type Service struct {
	punches        ports.PunchStore
	approvals      ports.ApprovalQueue
	geofences      ports.GeofenceSource
	collector      ports.SignalCollector
	scorer         ports.RiskScorer
	validator      *location.Validator
	tx             tx.Runner
	geocoder       ports.Geocoder
	overtime       ports.OvertimeAuthorizer
	notifier       ports.Notifier
	outbox         ports.Notifier
	metrics        *metrics.Metrics
	logger         *slog.Logger
	tracer         trace.Tracer
	deadline       time.Duration
	signalsTimeout time.Duration
	geocodeTimeout time.Duration
	loc            *time.Location
	integrityKey   []byte
}

type Option func(*Service)

func WithGeocoder(g ports.Geocoder) Option {
	return func(s *Service) {
		s.geocoder = g
	}
}

func WithOvertimeAuthorizer(a ports.OvertimeAuthorizer) Option {
	return func(s *Service) {
		s.overtime = a
	}
}

// WithNotifier sets the publishers that deliver after the registration commits.
func WithNotifier(n ports.Notifier) Option {
	return func(s *Service) {
		s.notifier = n
	}
}

// WithOutbox sets a publisher that writes through the registration transaction.
func WithOutbox(n ports.Notifier) Option {
	return func(s *Service) {
		s.outbox = n
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithDeadline bounds a whole registration.
func WithDeadline(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deadline = d
		}
	}
}

// WithSignalsTimeout bounds signal collection inside a registration. When it
// expires the risk is unknown.
func WithSignalsTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.signalsTimeout = d
		}
	}
}

func WithGeocodeTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.geocodeTimeout = d
		}
	}
}

// WithWorkdayLocation sets the timezone that decides which calendar day a punch belongs to.
func WithWorkdayLocation(loc *time.Location) Option {
	return func(s *Service) {
		if loc != nil {
			s.loc = loc
		}
	}
}

// WithIntegrityKey sets the key of the record integrity hash.
func WithIntegrityKey(key string) Option {
	return func(s *Service) {
		if key != "" {
			s.integrityKey = integrityKey(key)
		}
	}
}

func New(
	punches ports.PunchStore,
	approvals ports.ApprovalQueue,
	geofences ports.GeofenceSource,
	collector ports.SignalCollector,
	scorer ports.RiskScorer,
	validator *location.Validator,
	runner tx.Runner,
	opts ...Option,
) (*Service, error) {
	switch {
	case punches == nil:
		return nil, fmt.Errorf("punch store is required")
	case approvals == nil:
		return nil, fmt.Errorf("approval queue is required")
	case geofences == nil:
		return nil, fmt.Errorf("geofence source is required")
	case collector == nil:
		return nil, fmt.Errorf("signal collector is required")
	case scorer == nil:
		return nil, fmt.Errorf("risk scorer is required")
	case validator == nil:
		return nil, fmt.Errorf("location validator is required")
	case runner == nil:
		return nil, fmt.Errorf("transaction runner is required")
	}
	s := &Service{
		punches:        punches,
		approvals:      approvals,
		geofences:      geofences,
		collector:      collector,
		scorer:         scorer,
		validator:      validator,
		tx:             runner,
		logger:         slog.Default(),
		tracer:         otel.Tracer("punchclock/punch"),
		deadline:       DefaultDeadline,
		signalsTimeout: DefaultSignalsTimeout,
		geocodeTimeout: DefaultGeocodeTimeout,
		loc:            time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// integrityKey fits key to the blake2b MAC key size.
func integrityKey(key string) []byte {
	if len(key) <= blake2b.Size {
		return []byte(key)
	}
	sum := blake2b.Sum256([]byte(key))
	return sum[:]
}
