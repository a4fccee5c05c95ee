package ipintel

import (
	"context"
	"fmt"
	"log/slog"
	"net/netip"
	"strings"
	"time"

	"punchclock/internal/punch/models"
	"punchclock/pkg/platform/sentinel"
)

// Lookuper resolves a public address into raw intelligence.
type Lookuper interface {
	Lookup(ctx context.Context, ip string) (*models.IPIntel, error)
}

// Analyzer answers IP verdicts, short-circuiting private addresses and
// reusing cached verdicts.
type Analyzer struct {
	lookup Lookuper
	cache  Cache
	ttl    time.Duration
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Analyzer)

func WithCache(cache Cache) Option {
	return func(a *Analyzer) {
		if cache != nil {
			a.cache = cache
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(a *Analyzer) {
		if ttl > 0 {
			a.ttl = ttl
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		a.logger = logger
	}
}

func NewAnalyzer(lookup Lookuper, opts ...Option) (*Analyzer, error) {
	if lookup == nil {
		return nil, fmt.Errorf("ip lookup client is required")
	}
	a := &Analyzer{
		lookup: lookup,
		cache:  NewMemoryCache(),
		ttl:    DefaultTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Analyze returns the verdict for ip. Lookup failures are returned to the
// caller, which records the dimension as degraded. An address that does not
// parse fails with sentinel.ErrInvalidInput without reaching the provider.
func (a *Analyzer) Analyze(ctx context.Context, ip string) (*models.IPIntel, error) {
	ip, err := canonical(ip)
	if err != nil {
		return nil, err
	}
	if IsPrivate(ip) {
		return &models.IPIntel{IP: ip, IsPrivate: true, CheckedAt: a.now().UTC()}, nil
	}

	cached, ok, err := a.cache.Get(ctx, ip)
	if err != nil {
		a.logWarn(ctx, "ip intel cache read failed", "error", err)
	} else if ok {
		return cached, nil
	}

	intel, err := a.lookup.Lookup(ctx, ip)
	if err != nil {
		return nil, err
	}
	if err := a.cache.Set(ctx, ip, intel, a.ttl); err != nil {
		a.logWarn(ctx, "ip intel cache write failed", "error", err)
	}
	return intel, nil
}

// canonical parses ip and returns its normalized text form, so that every
// spelling of one address shares a cache entry.
func canonical(ip string) (string, error) {
	ip = strings.TrimSpace(ip)
	if ip == "" {
		return "", fmt.Errorf("ip address is required: %w", sentinel.ErrInvalidInput)
	}
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return "", fmt.Errorf("ip address %q: %w", ip, sentinel.ErrInvalidInput)
	}
	return addr.Unmap().WithZone("").String(), nil
}

func (a *Analyzer) logWarn(ctx context.Context, msg string, args ...any) {
	if a.logger == nil {
		return
	}
	a.logger.WarnContext(ctx, msg, args...)
}
