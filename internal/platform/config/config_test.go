package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	for _, key := range []string{"PUNCHCLOCK_ADDR", "DATABASE_URL", "KAFKA_BROKERS", "PUNCH_WORKDAY_TZ", "PUNCH_ACCURACY_THRESHOLD_M", "PUNCH_SIGNALS_TIMEOUT", "PUNCH_SUBLOOKUP_TIMEOUT", "TRUSTED_PROXIES"} {
		t.Setenv(key, "")
	}
	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Empty(t, cfg.Database.URL)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.Equal(t, float64(100), cfg.Punch.AccuracyThresholdMeters)
	assert.Equal(t, 60*time.Second, cfg.Punch.MaxLocationAge)
	assert.Equal(t, 70, cfg.Punch.HighRiskThreshold)
	assert.Equal(t, 15*time.Second, cfg.Punch.RegisterDeadline)
	assert.Equal(t, 5*time.Second, cfg.Punch.SignalCacheTTL)
	assert.Equal(t, time.UTC, cfg.Punch.WorkdayLocation)
	assert.Equal(t, 5*time.Second, cfg.Punch.SignalsBudget())
	assert.Empty(t, cfg.TrustedProxies)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("PUNCHCLOCK_ADDR", ":9090")
	t.Setenv("PUNCH_ACCURACY_THRESHOLD_M", "50")
	t.Setenv("PUNCH_REGISTER_DEADLINE", "3s")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092,")
	t.Setenv("PUNCH_WORKDAY_TZ", "America/Sao_Paulo")
	t.Setenv("PUNCH_HIGH_RISK_THRESHOLD", "not-a-number")
	t.Setenv("TRUSTED_PROXIES", "10.0.0.0/8, 192.0.2.250")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Addr)
	assert.Equal(t, float64(50), cfg.Punch.AccuracyThresholdMeters)
	assert.Equal(t, 3*time.Second, cfg.Punch.RegisterDeadline)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.Brokers)
	assert.Equal(t, "America/Sao_Paulo", cfg.Punch.WorkdayLocation.String())
	assert.Equal(t, 70, cfg.Punch.HighRiskThreshold, "invalid values fall back to defaults")
	assert.Equal(t, []string{"10.0.0.0/8", "192.0.2.250"}, cfg.TrustedProxies)
}

func TestFromEnv_ReviewerEmailsAreFolded(t *testing.T) {
	t.Setenv("REVIEWER_NOTIFY_EMAILS", "Lead@Example.com, lead@example.com,ops@example.com")

	cfg := FromEnv()

	assert.Equal(t, []string{"lead@example.com", "ops@example.com"}, cfg.Mail.To)
}

func TestSignalsBudgetOutlastsSubLookups(t *testing.T) {
	tests := []struct {
		name      string
		subLookup time.Duration
		signals   time.Duration
		want      time.Duration
	}{
		{"defaults", DefaultSubLookupTimeout, DefaultSignalsTimeout, DefaultSignalsTimeout},
		{"equal to a sub-lookup", 3 * time.Second, 3 * time.Second, 3*time.Second + signalsMargin},
		{"shorter than a sub-lookup", 3 * time.Second, time.Second, 3*time.Second + signalsMargin},
		{"unset", 150 * time.Millisecond, 0, 150*time.Millisecond + signalsMargin},
		{"generous", time.Second, 10 * time.Second, 10 * time.Second},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PunchConfig{SubLookupTimeout: tt.subLookup, SignalsTimeout: tt.signals}
			assert.Equal(t, tt.want, p.SignalsBudget())
			assert.Greater(t, p.SignalsBudget(), p.SubLookupTimeout)
		})
	}
}
