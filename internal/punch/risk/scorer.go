package risk

import (
	"sort"
	"strings"
	"sync"
	"time"

	"punchclock/internal/punch/location"
	"punchclock/internal/punch/models"
	"punchclock/internal/punch/signals"
)

const (
	DefaultHighRiskThreshold = 70

	// maxVelocityKmh is above any commercial flight.
	maxVelocityKmh = 1000.0
	// minTravelKm ignores IP geolocation jitter between nearby exits.
	minTravelKm = 100.0

	atypicalFromHour = 2
	atypicalToHour   = 5
)

// weights are the points each tag adds. All are positive, so the score is
// monotonic in the tag set.
var weights = map[models.AnomalyTag]int{
	models.TagNewDevice:          15,
	models.TagNewIP:              10,
	models.TagVPN:                30,
	models.TagProxy:              30,
	models.TagDatacenter:         25,
	models.TagTor:                50,
	models.TagImpossibleVelocity: 45,
	models.TagAutomatedClient:    45,
	models.TagAtypicalHours:      10,
	models.TagTimezoneMismatch:   15,
	models.TagSignalsDegraded:    20,
}

// tagOrder fixes the order tags are reported in.
var tagOrder = []models.AnomalyTag{
	models.TagAutomatedClient,
	models.TagTor,
	models.TagVPN,
	models.TagProxy,
	models.TagDatacenter,
	models.TagImpossibleVelocity,
	models.TagNewDevice,
	models.TagNewIP,
	models.TagTimezoneMismatch,
	models.TagAtypicalHours,
	models.TagSignalsDegraded,
}

// Weight returns the points tag contributes.
func Weight(tag models.AnomalyTag) int {
	return weights[tag]
}

// ScoreTags sums the weights of the distinct tags, capped at 100.
func ScoreTags(tags []models.AnomalyTag) int {
	seen := make(map[models.AnomalyTag]struct{}, len(tags))
	total := 0
	for _, t := range tags {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		total += weights[t]
	}
	if total > 100 {
		return 100
	}
	return total
}

// Scorer turns a signal snapshot and the identity's history into a
// RiskAssessment. It is pure: identical inputs give identical output.
type Scorer struct {
	threshold int
	loc       *time.Location
	zones     sync.Map // timezone name -> *time.Location
}

// New creates a scorer. loc is used for the atypical-hours check when the
// client did not report a loadable timezone.
func New(threshold int, loc *time.Location) *Scorer {
	if threshold <= 0 || threshold > 100 {
		threshold = DefaultHighRiskThreshold
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Scorer{threshold: threshold, loc: loc}
}

// Threshold returns the score at and above which a punch is high risk.
func (s *Scorer) Threshold() int {
	return s.threshold
}

// Score evaluates sig against history, the identity's prior punches.
func (s *Scorer) Score(sig models.NetworkSignals, history []models.SignalHistoryEntry) models.RiskAssessment {
	fired := make(map[models.AnomalyTag]bool, len(tagOrder))

	if sig.IsBot {
		fired[models.TagAutomatedClient] = true
	}
	if intel := sig.IPIntel; intel != nil && !intel.IsPrivate {
		fired[models.TagVPN] = intel.IsVPN
		fired[models.TagProxy] = intel.IsProxy
		fired[models.TagDatacenter] = intel.IsDatacenter
		fired[models.TagTor] = intel.IsTor
		if sig.Timezone != "" && intel.Timezone != "" && !strings.EqualFold(sig.Timezone, intel.Timezone) {
			fired[models.TagTimezoneMismatch] = true
		}
	}
	if sig.DeviceFingerprint != "" && !seenDevice(history, sig.DeviceFingerprint) {
		fired[models.TagNewDevice] = true
	}
	if sig.IPAddress != "" && !seenIP(history, sig.IPAddress) {
		fired[models.TagNewIP] = true
	}
	if impossibleTravel(sig, history) {
		fired[models.TagImpossibleVelocity] = true
	}
	if !sig.CapturedAt.IsZero() {
		h := sig.CapturedAt.In(s.location(sig.Timezone)).Hour()
		if h >= atypicalFromHour && h < atypicalToHour {
			fired[models.TagAtypicalHours] = true
		}
	}
	if sig.IsDegraded() {
		fired[models.TagSignalsDegraded] = true
	}

	tags := make([]models.AnomalyTag, 0, len(fired))
	for _, t := range tagOrder {
		if fired[t] {
			tags = append(tags, t)
		}
	}
	score := ScoreTags(tags)
	return models.RiskAssessment{
		Score:      score,
		Confidence: confidence(sig, history),
		Tags:       tags,
		IsHighRisk: score >= s.threshold,
	}
}

func (s *Scorer) location(name string) *time.Location {
	if name == "" {
		return s.loc
	}
	if cached, ok := s.zones.Load(name); ok {
		return cached.(*time.Location)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		loc = s.loc
	}
	s.zones.Store(name, loc)
	return loc
}

// confidence is how much of the picture the scorer saw, in [0, 1].
func confidence(sig models.NetworkSignals, history []models.SignalHistoryEntry) float64 {
	c := 1.0
	if sig.IPIntel == nil {
		c -= 0.35
	}
	for _, source := range sig.Degraded {
		if source != signals.SourceIPIntel && source != signals.SourceIPAddress {
			c -= 0.15
		}
	}
	if len(history) == 0 {
		c -= 0.2
	}
	if sig.DeviceFingerprint == "" {
		c -= 0.1
	}
	if c < 0 {
		return 0
	}
	return c
}

func seenDevice(history []models.SignalHistoryEntry, fingerprint string) bool {
	for _, h := range history {
		if h.DeviceFingerprint == fingerprint {
			return true
		}
	}
	return false
}

func seenIP(history []models.SignalHistoryEntry, ip string) bool {
	for _, h := range history {
		if h.IPAddress == ip {
			return true
		}
	}
	return false
}

// impossibleTravel compares the IP position of this punch with the most
// recent earlier punch that has one.
func impossibleTravel(sig models.NetworkSignals, history []models.SignalHistoryEntry) bool {
	intel := sig.IPIntel
	if intel == nil || intel.Latitude == nil || intel.Longitude == nil || sig.CapturedAt.IsZero() {
		return false
	}
	prior := make([]models.SignalHistoryEntry, 0, len(history))
	for _, h := range history {
		if h.Latitude != nil && h.Longitude != nil && h.PunchedAt.Before(sig.CapturedAt) {
			prior = append(prior, h)
		}
	}
	if len(prior) == 0 {
		return false
	}
	sort.SliceStable(prior, func(i, j int) bool { return prior[i].PunchedAt.After(prior[j].PunchedAt) })
	last := prior[0]

	km := location.Haversine(*last.Latitude, *last.Longitude, *intel.Latitude, *intel.Longitude) / 1000
	if km < minTravelKm {
		return false
	}
	hours := sig.CapturedAt.Sub(last.PunchedAt).Hours()
	if hours < 0.001 {
		hours = 0.001
	}
	return km/hours > maxVelocityKmh
}
