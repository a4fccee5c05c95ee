package risk

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchclock/internal/punch/models"
	"punchclock/internal/punch/signals"
)

func ptr(v float64) *float64 { return &v }

var morning = time.Date(2026, 3, 2, 11, 0, 0, 0, time.UTC) // 08:00 in Sao Paulo

func knownSignals() (models.NetworkSignals, []models.SignalHistoryEntry) {
	sig := models.NetworkSignals{
		IPAddress:         "203.0.113.10",
		DeviceFingerprint: "device-a",
		Timezone:          "America/Sao_Paulo",
		CapturedAt:        morning,
		IPIntel: &models.IPIntel{
			IP:        "203.0.113.10",
			Timezone:  "America/Sao_Paulo",
			Latitude:  ptr(-23.55),
			Longitude: ptr(-46.63),
		},
	}
	history := []models.SignalHistoryEntry{{
		PunchedAt:         morning.Add(-24 * time.Hour),
		DeviceFingerprint: "device-a",
		IPAddress:         "203.0.113.10",
		Latitude:          ptr(-23.55),
		Longitude:         ptr(-46.63),
	}}
	return sig, history
}

func TestScore_KnownContextIsLowRisk(t *testing.T) {
	sig, history := knownSignals()

	got := New(70, time.UTC).Score(sig, history)

	assert.Zero(t, got.Score)
	assert.Empty(t, got.Tags)
	assert.False(t, got.IsHighRisk)
	assert.InDelta(t, 1.0, got.Confidence, 1e-9)
}

func TestScore_Tags(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*models.NetworkSignals, *[]models.SignalHistoryEntry)
		want   models.AnomalyTag
	}{
		{"unseen device", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.DeviceFingerprint = "device-b" }, models.TagNewDevice},
		{"unseen ip", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPAddress = "198.51.100.1" }, models.TagNewIP},
		{"vpn", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPIntel.IsVPN = true }, models.TagVPN},
		{"proxy", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPIntel.IsProxy = true }, models.TagProxy},
		{"datacenter", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPIntel.IsDatacenter = true }, models.TagDatacenter},
		{"tor", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPIntel.IsTor = true }, models.TagTor},
		{"bot", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IsBot = true }, models.TagAutomatedClient},
		{"timezone mismatch", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) { s.IPIntel.Timezone = "Europe/Lisbon" }, models.TagTimezoneMismatch},
		{"degraded", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) {
			s.Degraded = []string{signals.SourceNetwork}
		}, models.TagSignalsDegraded},
		{"atypical hours", func(s *models.NetworkSignals, _ *[]models.SignalHistoryEntry) {
			s.CapturedAt = time.Date(2026, 3, 2, 6, 30, 0, 0, time.UTC) // 03:30 local
		}, models.TagAtypicalHours},
		{"impossible velocity", func(s *models.NetworkSignals, h *[]models.SignalHistoryEntry) {
			// Lisbon an hour ago, Sao Paulo now.
			*h = append(*h, models.SignalHistoryEntry{
				PunchedAt: morning.Add(-time.Hour), DeviceFingerprint: "device-a", IPAddress: "203.0.113.10",
				Latitude: ptr(38.72), Longitude: ptr(-9.14),
			})
		}, models.TagImpossibleVelocity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, history := knownSignals()
			tt.mutate(&sig, &history)

			got := New(70, time.UTC).Score(sig, history)
			assert.True(t, got.HasTag(tt.want), "tags: %v", got.Tags)
			assert.Len(t, got.Tags, 1, "tags: %v", got.Tags)
			assert.Equal(t, Weight(tt.want), got.Score)
		})
	}
}

func TestScore_PrivateAddressIgnoresAnonymizerFlags(t *testing.T) {
	sig, history := knownSignals()
	sig.IPIntel.IsPrivate = true
	sig.IPIntel.IsVPN = true

	got := New(70, time.UTC).Score(sig, history)
	assert.False(t, got.HasTag(models.TagVPN))
}

func TestScore_NearbyMoveIsNotImpossible(t *testing.T) {
	sig, history := knownSignals()
	history = append(history, models.SignalHistoryEntry{
		PunchedAt: morning.Add(-time.Minute), DeviceFingerprint: "device-a", IPAddress: "203.0.113.10",
		Latitude: ptr(-23.30), Longitude: ptr(-46.60), // ~28 km away
	})

	got := New(70, time.UTC).Score(sig, history)
	assert.False(t, got.HasTag(models.TagImpossibleVelocity))
}

func TestScore_HighRiskThreshold(t *testing.T) {
	sig, history := knownSignals()
	sig.IPIntel.IsVPN = true
	sig.IPIntel.IsDatacenter = true
	sig.DeviceFingerprint = "device-z"

	got := New(70, time.UTC).Score(sig, history)
	assert.Equal(t, 70, got.Score)
	assert.True(t, got.IsHighRisk, "threshold is inclusive")

	assert.False(t, New(71, time.UTC).Score(sig, history).IsHighRisk)
}

func TestScore_Deterministic(t *testing.T) {
	sig, history := knownSignals()
	sig.IsBot = true
	sig.IPIntel.IsProxy = true
	sig.Degraded = []string{signals.SourceNetwork}
	s := New(70, time.UTC)

	first := s.Score(sig, history)
	for i := 0; i < 50; i++ {
		require.Equal(t, first, s.Score(sig, history))
	}
}

func TestScore_Bounded(t *testing.T) {
	sig := models.NetworkSignals{
		IsBot:      true,
		IPAddress:  "198.51.100.1",
		Timezone:   "Asia/Tokyo",
		CapturedAt: time.Date(2026, 3, 2, 18, 0, 0, 0, time.UTC), // 03:00 Tokyo
		Degraded:   []string{signals.SourceNetwork, "a", "b", "c", "d", "e", "f", "g"},
		IPIntel: &models.IPIntel{
			IsVPN: true, IsProxy: true, IsTor: true, IsDatacenter: true, Timezone: "UTC",
		},
		DeviceFingerprint: "x",
	}

	got := New(70, time.UTC).Score(sig, nil)
	assert.Equal(t, 100, got.Score)
	assert.GreaterOrEqual(t, got.Confidence, 0.0)
	assert.LessOrEqual(t, got.Confidence, 1.0)
}

// TestScoreTags_Monotonic checks every subset of tags: adding one more tag
// never lowers the score.
func TestScoreTags_Monotonic(t *testing.T) {
	n := len(tagOrder)
	for mask := 0; mask < 1<<n; mask++ {
		var set []models.AnomalyTag
		for i := 0; i < n; i++ {
			if mask&(1<<i) != 0 {
				set = append(set, tagOrder[i])
			}
		}
		base := ScoreTags(set)
		require.GreaterOrEqual(t, base, 0)
		require.LessOrEqual(t, base, 100)
		for _, extra := range tagOrder {
			require.GreaterOrEqual(t, ScoreTags(append(append([]models.AnomalyTag{}, set...), extra)), base,
				"adding %s to %v", extra, set)
		}
	}
}

func TestScore_MonotonicInSignals(t *testing.T) {
	anomalies := []func(*models.NetworkSignals){
		func(s *models.NetworkSignals) { s.IsBot = true },
		func(s *models.NetworkSignals) { s.IPIntel.IsVPN = true },
		func(s *models.NetworkSignals) { s.IPIntel.IsProxy = true },
		func(s *models.NetworkSignals) { s.IPIntel.IsTor = true },
		func(s *models.NetworkSignals) { s.IPIntel.IsDatacenter = true },
		func(s *models.NetworkSignals) { s.DeviceFingerprint = "unseen" },
		func(s *models.NetworkSignals) { s.Degraded = append(s.Degraded, signals.SourceNetwork) },
	}
	scorer := New(70, time.UTC)

	for i := range anomalies {
		for j := range anomalies {
			sig, history := knownSignals()
			anomalies[i](&sig)
			before := scorer.Score(sig, history).Score
			anomalies[j](&sig)
			assert.GreaterOrEqual(t, scorer.Score(sig, history).Score, before)
		}
	}
}

func TestScoreTags_IgnoresDuplicates(t *testing.T) {
	assert.Equal(t, Weight(models.TagVPN), ScoreTags([]models.AnomalyTag{models.TagVPN, models.TagVPN}))
}
