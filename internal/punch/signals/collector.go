package signals

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"punchclock/internal/punch/metrics"
	"punchclock/internal/punch/models"
	id "punchclock/pkg/domain"
	"punchclock/pkg/platform/backoff"
	"punchclock/pkg/platform/sentinel"
)

// Sub-lookup names, recorded in NetworkSignals.Degraded and as metric labels.
const (
	SourceIPIntel   = "ip_intel"
	SourceNetwork   = "network_name"
	SourceIPAddress = "ip_address"
)

const (
	DefaultTTL           = 5 * time.Second
	DefaultLookupTimeout = 3 * time.Second
)

// SessionRequest identifies whose signals to collect and carries what the
// client reported about itself.
type SessionRequest struct {
	SessionID id.SessionID
	IPAddress string
	UserAgent string
	Hints     models.ClientHints
}

// Key is the cache and single-flight key. Sessionless requests are keyed by
// their address and device.
func (r SessionRequest) Key() string {
	if !r.SessionID.IsNil() {
		return r.SessionID.String()
	}
	return "anon:" + Fingerprint(r.UserAgent, r.IPAddress, r.Hints.Timezone, r.Hints.Locale)
}

// IPAnalyzer returns the intelligence verdict for an address.
type IPAnalyzer interface {
	Analyze(ctx context.Context, ip string) (*models.IPIntel, error)
}

// Collector gathers NetworkSignals. Concurrent calls for the same session
// share one upstream round; fresh results are cached for a short TTL.
type Collector struct {
	ip            IPAnalyzer
	network       NetworkNameResolver
	cache         Cache
	flights       singleflight.Group
	backoff       *backoff.Tracker
	ttl           time.Duration
	lookupTimeout time.Duration
	metrics       *metrics.Metrics
	logger        *slog.Logger
	tracer        trace.Tracer
	now           func() time.Time
}

type Option func(*Collector)

func WithCache(cache Cache) Option {
	return func(c *Collector) {
		if cache != nil {
			c.cache = cache
		}
	}
}

func WithTTL(ttl time.Duration) Option {
	return func(c *Collector) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

func WithLookupTimeout(timeout time.Duration) Option {
	return func(c *Collector) {
		if timeout > 0 {
			c.lookupTimeout = timeout
		}
	}
}

func WithBackoff(policy backoff.Policy) Option {
	return func(c *Collector) {
		c.backoff = backoff.NewTracker("signals", policy)
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *Collector) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithClock overrides the time source used for freshness and backoff.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) {
		if now != nil {
			c.now = now
		}
	}
}

func New(ip IPAnalyzer, network NetworkNameResolver, opts ...Option) (*Collector, error) {
	if ip == nil {
		return nil, fmt.Errorf("ip analyzer is required")
	}
	if network == nil {
		return nil, fmt.Errorf("network name resolver is required")
	}
	c := &Collector{
		ip:            ip,
		network:       network,
		cache:         NewMemoryCache(DefaultRetention),
		backoff:       backoff.NewTracker("signals", backoff.DefaultPolicy()),
		ttl:           DefaultTTL,
		lookupTimeout: DefaultLookupTimeout,
		logger:        slog.Default(),
		tracer:        otel.Tracer("punchclock/punch/signals"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Collect returns the signals for req. A fresh cache entry is returned as
// is. While the collector is backing off, or when the upstream rate-limits
// us, the last known entry is served stale; with no entry to fall back on a
// backoff yields sentinel.ErrUnavailable. Sub-lookup failures otherwise do
// not fail the call: they are listed in NetworkSignals.Degraded.
func (c *Collector) Collect(ctx context.Context, req SessionRequest) (models.NetworkSignals, error) {
	ctx, span := c.tracer.Start(ctx, "signals.Collect")
	defer span.End()

	key := req.Key()
	now := c.now()

	entry, cached := c.cached(ctx, key)
	if cached && entry.Fresh(now, c.ttl) {
		c.metrics.IncrementCache("hit")
		span.SetAttributes(attribute.String("signals.cache", "hit"))
		return entry.Signals, nil
	}

	if ready, wait := c.backoff.Ready(now); !ready {
		if cached {
			c.metrics.IncrementCache("stale")
			span.SetAttributes(attribute.String("signals.cache", "stale"))
			return entry.Signals, nil
		}
		return models.NetworkSignals{}, fmt.Errorf("signal collection backing off for %s: %w", wait, sentinel.ErrUnavailable)
	}
	c.metrics.IncrementCache("miss")

	// The flight outlives a caller that gives up; each sub-lookup carries its
	// own timeout.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.flights.DoChan(key, func() (any, error) {
		return c.fetch(flightCtx, key, req), nil
	})

	select {
	case <-ctx.Done():
		return models.NetworkSignals{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.IncrementCache("shared")
		}
		out := res.Val.(fetchResult)
		if out.rateLimited && cached {
			c.metrics.IncrementCache("stale")
			span.SetAttributes(attribute.String("signals.cache", "stale"))
			return entry.Signals, nil
		}
		span.SetAttributes(attribute.StringSlice("signals.degraded", out.signals.Degraded))
		return out.signals, nil
	}
}

func (c *Collector) cached(ctx context.Context, key string) (Entry, bool) {
	entry, ok, err := c.cache.Get(ctx, key)
	if err != nil {
		c.logger.WarnContext(ctx, "signal cache read failed", "error", err)
		return Entry{}, false
	}
	return entry, ok
}

type fetchResult struct {
	signals     models.NetworkSignals
	failures    int
	rateLimited bool
}

func (c *Collector) fetch(ctx context.Context, key string, req SessionRequest) fetchResult {
	device := ParseDevice(req.UserAgent)
	res := fetchResult{signals: models.NetworkSignals{
		SessionID:         req.SessionID,
		ConnectionType:    req.Hints.ConnectionType,
		EffectiveType:     req.Hints.EffectiveType,
		DownlinkMbps:      req.Hints.DownlinkMbps,
		RTTMillis:         req.Hints.RTTMillis,
		NetworkName:       strings.TrimSpace(req.Hints.NetworkName),
		IPAddress:         req.IPAddress,
		Timezone:          req.Hints.Timezone,
		Locale:            req.Hints.Locale,
		Platform:          device.Platform,
		Browser:           device.Browser,
		IsBot:             device.IsBot,
		ScreenResolution:  req.Hints.ScreenResolution,
		DeviceFingerprint: Fingerprint(req.UserAgent, req.Hints.ScreenResolution, req.Hints.Timezone, req.Hints.Locale),
		CapturedAt:        c.now().UTC(),
	}}

	// A lookup refused for the caller's own input is degraded but says nothing
	// about upstream health, so it does not feed the backoff.
	var mu sync.Mutex
	fail := func(source string, err error) {
		mu.Lock()
		defer mu.Unlock()
		res.signals.Degraded = append(res.signals.Degraded, source)
		if errors.Is(err, sentinel.ErrInvalidInput) {
			c.logger.WarnContext(ctx, "signal lookup rejected input", "source", source, "error", err)
			return
		}
		res.failures++
		if errors.Is(err, sentinel.ErrRateLimited) {
			res.rateLimited = true
		}
		c.logger.WarnContext(ctx, "signal lookup failed", "source", source, "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)

	if req.IPAddress == "" {
		res.signals.Degraded = append(res.signals.Degraded, SourceIPAddress)
	} else {
		g.Go(func() error {
			lctx, cancel := context.WithTimeout(gctx, c.lookupTimeout)
			defer cancel()
			start := time.Now()
			intel, err := c.ip.Analyze(lctx, req.IPAddress)
			c.metrics.ObserveLookup(SourceIPIntel, start, err)
			if err != nil {
				fail(SourceIPIntel, err)
				return nil
			}
			mu.Lock()
			res.signals.IPIntel = intel
			mu.Unlock()
			return nil
		})
	}

	g.Go(func() error {
		lctx, cancel := context.WithTimeout(gctx, c.lookupTimeout)
		defer cancel()
		start := time.Now()
		name, err := c.network.ResolveNetworkName(lctx, req)
		c.metrics.ObserveLookup(SourceNetwork, start, err)
		if err != nil {
			fail(SourceNetwork, err)
			return nil
		}
		mu.Lock()
		res.signals.NetworkName = name
		mu.Unlock()
		return nil
	})

	_ = g.Wait()
	sort.Strings(res.signals.Degraded)

	if res.failures == 0 {
		c.backoff.RecordSuccess()
		if err := c.cache.Set(ctx, key, Entry{Signals: res.signals, StoredAt: c.now()}); err != nil {
			c.logger.WarnContext(ctx, "signal cache write failed", "error", err)
		}
		return res
	}

	if delay, engaged := c.backoff.RecordFailure(c.now()); engaged {
		c.metrics.IncrementBackoff()
		c.logger.WarnContext(ctx, "signal collection backing off",
			"failures", c.backoff.Failures(),
			"delay", delay,
		)
	}
	return res
}
