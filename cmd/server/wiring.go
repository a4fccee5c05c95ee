package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	approvalhandler "punchclock/internal/approval/handler"
	approvalmetrics "punchclock/internal/approval/metrics"
	approvalports "punchclock/internal/approval/ports"
	approvalservice "punchclock/internal/approval/service"
	approvalstore "punchclock/internal/approval/store"
	jwttoken "punchclock/internal/jwt_token"
	"punchclock/internal/notification"
	streamhandler "punchclock/internal/notification/handler"
	overtimehandler "punchclock/internal/overtime/handler"
	overtimemetrics "punchclock/internal/overtime/metrics"
	overtimeports "punchclock/internal/overtime/ports"
	overtimeservice "punchclock/internal/overtime/service"
	overtimestore "punchclock/internal/overtime/store"
	"punchclock/internal/platform/config"
	"punchclock/internal/platform/kafka"
	"punchclock/internal/platform/metrics"
	"punchclock/internal/platform/postgres"
	"punchclock/internal/platform/redis"
	"punchclock/internal/punch/geocode"
	punchhandler "punchclock/internal/punch/handler"
	"punchclock/internal/punch/ipintel"
	"punchclock/internal/punch/location"
	punchmetrics "punchclock/internal/punch/metrics"
	"punchclock/internal/punch/ports"
	"punchclock/internal/punch/risk"
	punchservice "punchclock/internal/punch/service"
	"punchclock/internal/punch/signals"
	punchstore "punchclock/internal/punch/store"
	"punchclock/pkg/platform/backoff"
	"punchclock/pkg/platform/httputil"
	authmw "punchclock/pkg/platform/middleware/auth"
	"punchclock/pkg/platform/middleware/metadata"
	"punchclock/pkg/platform/middleware/request"
	"punchclock/pkg/platform/middleware/requesttime"
	"punchclock/pkg/platform/tx"
)

const (
	// signalRetention bounds how long a stale signal snapshot may still be
	// served while the upstream lookups are backing off.
	signalRetention = 10 * time.Minute
	hubBuffer       = 64
	topicPartitions = 3
	healthTimeout   = 2 * time.Second
)

// app holds the assembled router, its background workers and what must be
// released on shutdown.
type app struct {
	router  http.Handler
	workers []func(ctx context.Context) error
	closers []func()
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func build(ctx context.Context, cfg config.Server, log *slog.Logger) (*app, error) {
	a := &app{}

	db, err := openDatabase(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}
	if db != nil {
		a.closers = append(a.closers, func() { _ = db.Close() })
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		a.Close()
		return nil, err
	}
	if rc != nil {
		log.Info("using redis signal cache")
		a.closers = append(a.closers, func() { _ = rc.Close() })
	}

	producer, err := kafka.NewProducer(cfg.Kafka)
	if err != nil {
		a.Close()
		return nil, err
	}
	if producer != nil {
		a.closers = append(a.closers, producer.Close)
		if err := producer.EnsureTopic(ctx, topicPartitions, 1); err != nil {
			log.Warn("failed to ensure notification topic", "topic", cfg.Kafka.NotificationTopic, "error", err)
		}
	}

	clientIP, err := metadata.NewResolver(cfg.TrustedProxies)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	hub := notification.NewHub(hubBuffer)
	pubs, workers, err := buildPublishers(cfg, log, db, producer, hub)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.workers = append(a.workers, workers...)
	publisher := pubs.all()

	punchMetrics := punchmetrics.New()
	collector, err := buildCollector(cfg, log, rc, punchMetrics)
	if err != nil {
		a.Close()
		return nil, err
	}

	var (
		punches      ports.PunchStore
		geofences    ports.GeofenceSource
		approvals    approvalports.Store
		overtimeRepo overtimeports.Store
		runner       tx.Runner
	)
	if db != nil {
		punches = punchstore.NewPostgresPunchStore(db)
		geofences = punchstore.NewPostgresGeofenceStore(db)
		approvals = approvalstore.NewPostgresStore(db)
		overtimeRepo = overtimestore.NewPostgresStore(db)
		runner = tx.NewPostgres(db, tx.DefaultTimeout)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		punches = punchstore.NewInMemoryPunchStore()
		geofences = punchstore.NewInMemoryGeofenceStore()
		approvals = approvalstore.NewInMemoryStore()
		overtimeRepo = overtimestore.NewInMemoryStore()
		runner = tx.NewSharded(tx.DefaultTimeout)
	}

	approvalSvc, err := approvalservice.New(approvals, punches, runner,
		approvalservice.WithNotifier(publisher),
		approvalservice.WithMetrics(approvalmetrics.New()),
		approvalservice.WithLogger(log),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("approval service: %w", err)
	}

	overtimeSvc, err := overtimeservice.New(overtimeRepo,
		overtimeservice.WithNotifier(publisher),
		overtimeservice.WithPendingCounter(approvalSvc),
		overtimeservice.WithMetrics(overtimemetrics.New()),
		overtimeservice.WithLogger(log),
		overtimeservice.WithWorkdayLocation(cfg.Punch.WorkdayLocation),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("overtime service: %w", err)
	}

	punchSvc, err := punchservice.New(
		punches,
		approvalSvc,
		geofences,
		collector,
		risk.New(cfg.Punch.HighRiskThreshold, cfg.Punch.WorkdayLocation),
		location.New(cfg.Punch.AccuracyThresholdMeters, cfg.Punch.MaxLocationAge),
		runner,
		punchservice.WithGeocoder(geocode.New(cfg.Providers.GeocoderURL, cfg.Providers.GeocoderAgent, cfg.Punch.GeocodeTimeout)),
		punchservice.WithOvertimeAuthorizer(overtimeSvc),
		punchservice.WithNotifier(pubs.delivery),
		punchservice.WithOutbox(pubs.outbox),
		punchservice.WithMetrics(punchMetrics),
		punchservice.WithLogger(log),
		punchservice.WithDeadline(cfg.Punch.RegisterDeadline),
		punchservice.WithSignalsTimeout(cfg.Punch.SignalsBudget()),
		punchservice.WithGeocodeTimeout(cfg.Punch.GeocodeTimeout),
		punchservice.WithWorkdayLocation(cfg.Punch.WorkdayLocation),
		punchservice.WithIntegrityKey(cfg.Punch.IntegrityKey),
	)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("punch service: %w", err)
	}

	jwtValidator := jwttoken.NewJWTServiceAdapter(
		jwttoken.NewJWTService(cfg.JWTSigningKey, cfg.JWTIssuer, cfg.JWTAudience),
	)
	httpMetrics := metrics.NewHTTP()

	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(request.RequestID)
	r.Use(httpMetrics.Middleware)
	r.Use(requesttime.Middleware)
	r.Use(clientIP.Middleware)

	r.Get("/healthz", healthHandler(db, rc, producer))
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(authmw.RequireAuth(jwtValidator, log))
		punchhandler.New(punchSvc, log).Register(r)
		approvalhandler.New(approvalSvc, log).Register(r)
		overtimehandler.New(overtimeSvc, log).Register(r)
		streamhandler.New(hub, approvalSvc, streamhandler.WithLogger(log)).Register(r)
	})

	a.router = r
	return a, nil
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig, log *slog.Logger) (*sql.DB, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := postgres.Open(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := postgres.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	log.Info("using postgres stores")
	return db, nil
}

// publishers splits the notification sinks by when they may run. outbox
// writes through the caller's transaction and is nil without a database and
// Kafka; delivery reaches people and must wait for the commit.
type publishers struct {
	delivery notification.Multi
	outbox   notification.Publisher
}

func (p publishers) all() notification.Publisher {
	if p.outbox == nil {
		return p.delivery
	}
	return append(notification.Multi{p.outbox}, p.delivery...)
}

// buildPublishers fans events out to the log, the live stream hub and, when
// configured, Kafka and reviewer e-mail. With a database the Kafka path goes
// through the outbox and its relay.
func buildPublishers(
	cfg config.Server,
	log *slog.Logger,
	db *sql.DB,
	producer *kafka.Producer,
	hub *notification.Hub,
) (publishers, []func(context.Context) error, error) {
	pubs := publishers{delivery: notification.Multi{notification.NewLogPublisher(log), hub}}
	var workers []func(context.Context) error

	switch {
	case producer != nil && db != nil:
		relay, err := notification.NewRelay(notification.NewOutboxStore(db), producer,
			notification.WithRelayInterval(cfg.Kafka.RelayInterval),
			notification.WithRelayBatchSize(cfg.Kafka.RelayBatchSize),
			notification.WithRelayBackoff(backoff.Policy{Base: cfg.Punch.BackoffBase, Cap: cfg.Punch.BackoffCap}),
			notification.WithRelayLogger(log),
		)
		if err != nil {
			return publishers{}, nil, fmt.Errorf("notification relay: %w", err)
		}
		pubs.outbox = notification.NewOutboxPublisher(db)
		workers = append(workers, relay.Run)
	case producer != nil:
		pubs.delivery = append(pubs.delivery, notification.NewKafkaPublisher(producer))
	}

	if mail := notification.NewMailPublisher(cfg.Mail, log); mail != nil {
		pubs.delivery = append(pubs.delivery, mail)
		workers = append(workers, mail.Run)
	}
	return pubs, workers, nil
}

func buildCollector(cfg config.Server, log *slog.Logger, rc *redis.Client, m *punchmetrics.Metrics) (*signals.Collector, error) {
	var (
		signalCache signals.Cache = signals.NewMemoryCache(signalRetention)
		intelCache  ipintel.Cache = ipintel.NewMemoryCache()
	)
	if rc != nil {
		signalCache = signals.NewRedisCache(rc.Client, signalRetention)
		intelCache = ipintel.NewRedisCache(rc.Client)
	}

	analyzer, err := ipintel.NewAnalyzer(
		ipintel.NewClient(cfg.Providers.IPIntelURL, cfg.Punch.SubLookupTimeout),
		ipintel.WithCache(intelCache),
		ipintel.WithTTL(cfg.Providers.IPIntelTTL),
		ipintel.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("ip analyzer: %w", err)
	}

	collector, err := signals.New(analyzer, signals.NewDNSResolver(nil),
		signals.WithCache(signalCache),
		signals.WithTTL(cfg.Punch.SignalCacheTTL),
		signals.WithLookupTimeout(cfg.Punch.SubLookupTimeout),
		signals.WithBackoff(backoff.Policy{Base: cfg.Punch.BackoffBase, Cap: cfg.Punch.BackoffCap}),
		signals.WithMetrics(m),
		signals.WithLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("signal collector: %w", err)
	}
	return collector, nil
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// healthHandler pings the configured infrastructure. Any failing check turns
// the response into 503.
func healthHandler(db *sql.DB, rc *redis.Client, producer *kafka.Producer) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		record := func(name string, err error) {
			if err != nil {
				checks[name] = err.Error()
				healthy = false
				return
			}
			checks[name] = "ok"
		}
		if db != nil {
			record("postgres", db.PingContext(ctx))
		}
		if rc != nil {
			record("redis", rc.Health(ctx))
		}
		if producer != nil {
			record("kafka", producer.Health(ctx))
		}

		if !healthy {
			httputil.WriteJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Checks: checks})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, healthResponse{Status: "ok", Checks: checks})
	}
}
