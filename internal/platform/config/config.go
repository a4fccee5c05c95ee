package config

import (
	"os"
	"strconv"
	"time"

	pstrings "punchclock/pkg/platform/strings"
)

// Server captures process level configuration.
type Server struct {
	Addr           string
	Environment    string
	JWTSigningKey  string
	JWTIssuer      string
	JWTAudience    string
	TrustedProxies []string
	Database       DatabaseConfig
	Redis          RedisConfig
	Kafka          KafkaConfig
	Mail           MailConfig
	Punch          PunchConfig
	Providers      ProviderConfig
}

// DatabaseConfig selects the Postgres store. Empty URL keeps everything in memory.
type DatabaseConfig struct {
	URL             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// RedisConfig selects the shared signal cache. Empty URL uses the in-process cache.
type RedisConfig struct {
	URL          string
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// KafkaConfig enables the notification relay. Empty Brokers disables it.
type KafkaConfig struct {
	Brokers           []string
	NotificationTopic string
	RelayInterval     time.Duration
	RelayBatchSize    int
}

// MailConfig enables reviewer e-mail notifications. Empty Host disables it.
type MailConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
}

// PunchConfig holds the registration thresholds and timeouts.
type PunchConfig struct {
	AccuracyThresholdMeters float64
	MaxLocationAge          time.Duration
	HighRiskThreshold       int
	RegisterDeadline        time.Duration
	SignalCacheTTL          time.Duration
	SubLookupTimeout        time.Duration
	SignalsTimeout          time.Duration
	GeocodeTimeout          time.Duration
	BackoffBase             time.Duration
	BackoffCap              time.Duration
	IntegrityKey            string
	WorkdayLocation         *time.Location
}

// ProviderConfig points at the external lookup services.
type ProviderConfig struct {
	IPIntelURL    string
	GeocoderURL   string
	GeocoderAgent string
	IPIntelTTL    time.Duration
}

// Defaults mirror the reference thresholds of the registration pipeline.
const (
	DefaultAccuracyThresholdMeters = 100
	DefaultMaxLocationAge          = 60 * time.Second
	DefaultHighRiskThreshold       = 70
	DefaultRegisterDeadline        = 15 * time.Second
	DefaultSignalCacheTTL          = 5 * time.Second
	DefaultSubLookupTimeout        = 3 * time.Second
	DefaultSignalsTimeout          = 5 * time.Second
	DefaultGeocodeTimeout          = 4 * time.Second
	DefaultIPIntelTTL              = 7 * 24 * time.Hour
)

// DefaultPunchConfig returns the reference thresholds.
func DefaultPunchConfig() PunchConfig {
	return PunchConfig{
		AccuracyThresholdMeters: DefaultAccuracyThresholdMeters,
		MaxLocationAge:          DefaultMaxLocationAge,
		HighRiskThreshold:       DefaultHighRiskThreshold,
		RegisterDeadline:        DefaultRegisterDeadline,
		SignalCacheTTL:          DefaultSignalCacheTTL,
		SubLookupTimeout:        DefaultSubLookupTimeout,
		SignalsTimeout:          DefaultSignalsTimeout,
		GeocodeTimeout:          DefaultGeocodeTimeout,
		BackoffBase:             time.Second,
		BackoffCap:              30 * time.Second,
		WorkdayLocation:         time.UTC,
	}
}

// signalsMargin is what collection needs beyond its slowest sub-lookup to
// assemble a degraded result.
const signalsMargin = 500 * time.Millisecond

// SignalsBudget is how long a registration waits for signal collection. It
// always outlasts a single sub-lookup, so one slow source ends as a degraded
// snapshot rather than an unknown risk.
func (p PunchConfig) SignalsBudget() time.Duration {
	if floor := p.SubLookupTimeout + signalsMargin; p.SignalsTimeout < floor {
		return floor
	}
	return p.SignalsTimeout
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	punch := DefaultPunchConfig()
	punch.AccuracyThresholdMeters = envFloat("PUNCH_ACCURACY_THRESHOLD_M", punch.AccuracyThresholdMeters)
	punch.MaxLocationAge = envDuration("PUNCH_MAX_LOCATION_AGE", punch.MaxLocationAge)
	punch.HighRiskThreshold = envInt("PUNCH_HIGH_RISK_THRESHOLD", punch.HighRiskThreshold)
	punch.RegisterDeadline = envDuration("PUNCH_REGISTER_DEADLINE", punch.RegisterDeadline)
	punch.SignalCacheTTL = envDuration("PUNCH_SIGNAL_CACHE_TTL", punch.SignalCacheTTL)
	punch.SubLookupTimeout = envDuration("PUNCH_SUBLOOKUP_TIMEOUT", punch.SubLookupTimeout)
	punch.SignalsTimeout = envDuration("PUNCH_SIGNALS_TIMEOUT", punch.SignalsTimeout)
	punch.GeocodeTimeout = envDuration("PUNCH_GEOCODE_TIMEOUT", punch.GeocodeTimeout)
	punch.BackoffBase = envDuration("PUNCH_BACKOFF_BASE", punch.BackoffBase)
	punch.BackoffCap = envDuration("PUNCH_BACKOFF_CAP", punch.BackoffCap)
	punch.IntegrityKey = envString("PUNCH_INTEGRITY_KEY", "dev-integrity-key-change-in-production")
	if tz := os.Getenv("PUNCH_WORKDAY_TZ"); tz != "" {
		if loc, err := time.LoadLocation(tz); err == nil {
			punch.WorkdayLocation = loc
		}
	}

	return Server{
		Addr:        envString("PUNCHCLOCK_ADDR", ":8080"),
		Environment: envString("PUNCHCLOCK_ENV", "development"),
		// Development default; production deployments must override it.
		JWTSigningKey: envString("JWT_SIGNING_KEY", "dev-secret-key-change-in-production"),
		JWTIssuer:     envString("JWT_ISSUER", "punchclock"),
		JWTAudience:   envString("JWT_AUDIENCE", "punchclock-api"),
		// Empty trusts no proxy: the peer address is the client.
		TrustedProxies: envList("TRUSTED_PROXIES"),
		Database: DatabaseConfig{
			URL:             os.Getenv("DATABASE_URL"),
			MaxOpenConns:    envInt("DATABASE_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    envInt("DATABASE_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: envDuration("DATABASE_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Redis: RedisConfig{
			URL:          os.Getenv("REDIS_URL"),
			PoolSize:     envInt("REDIS_POOL_SIZE", 10),
			MinIdleConns: envInt("REDIS_MIN_IDLE_CONNS", 2),
			DialTimeout:  envDuration("REDIS_DIAL_TIMEOUT", 5*time.Second),
			ReadTimeout:  envDuration("REDIS_READ_TIMEOUT", 3*time.Second),
			WriteTimeout: envDuration("REDIS_WRITE_TIMEOUT", 3*time.Second),
		},
		Kafka: KafkaConfig{
			Brokers:           envList("KAFKA_BROKERS"),
			NotificationTopic: envString("KAFKA_NOTIFICATION_TOPIC", "punchclock.notifications"),
			RelayInterval:     envDuration("OUTBOX_RELAY_INTERVAL", time.Second),
			RelayBatchSize:    envInt("OUTBOX_RELAY_BATCH_SIZE", 100),
		},
		Mail: MailConfig{
			Host:     os.Getenv("SMTP_HOST"),
			Port:     envInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     envString("SMTP_FROM", "punchclock@localhost"),
			To:       pstrings.SplitListFold(os.Getenv("REVIEWER_NOTIFY_EMAILS")),
		},
		Punch: punch,
		Providers: ProviderConfig{
			IPIntelURL:    envString("IPINTEL_URL", "https://ipapi.co"),
			GeocoderURL:   envString("GEOCODER_URL", "https://nominatim.openstreetmap.org"),
			GeocoderAgent: envString("GEOCODER_USER_AGENT", "punchclock/1.0"),
			IPIntelTTL:    envDuration("IPINTEL_CACHE_TTL", DefaultIPIntelTTL),
		},
	}
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func envList(key string) []string {
	return pstrings.SplitList(os.Getenv(key))
}
