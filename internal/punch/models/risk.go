package models

import "time"

// AnomalyTag names one risk heuristic that fired.
type AnomalyTag string

const (
	TagNewDevice          AnomalyTag = "new-device"
	TagNewIP              AnomalyTag = "new-ip"
	TagVPN                AnomalyTag = "vpn-detected"
	TagProxy              AnomalyTag = "proxy-detected"
	TagDatacenter         AnomalyTag = "datacenter-ip"
	TagTor                AnomalyTag = "tor-exit"
	TagImpossibleVelocity AnomalyTag = "impossible-velocity"
	TagAutomatedClient    AnomalyTag = "automated-client"
	TagAtypicalHours      AnomalyTag = "atypical-hours"
	TagTimezoneMismatch   AnomalyTag = "timezone-mismatch"
	TagSignalsDegraded    AnomalyTag = "signals-degraded"
)

// RiskAssessment is attached immutably to a PunchRecord at creation.
type RiskAssessment struct {
	Score      int     // 0..100
	Confidence float64 // 0..1
	Tags       []AnomalyTag
	IsHighRisk bool
	// Unknown is set when the inputs could not be obtained. An unknown
	// assessment is always treated as high risk.
	Unknown bool
}

// UnknownRisk is the assessment used when signals could not be collected.
func UnknownRisk() RiskAssessment {
	return RiskAssessment{Score: 100, Confidence: 0, IsHighRisk: true, Unknown: true}
}

// Elevated reports whether the assessment blocks an automatic commit.
func (r RiskAssessment) Elevated() bool {
	return r.IsHighRisk || r.Unknown
}

// HasTag reports whether tag fired.
func (r RiskAssessment) HasTag(tag AnomalyTag) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// SignalHistoryEntry is one prior punch of the same identity, as seen by the scorer.
type SignalHistoryEntry struct {
	PunchedAt         time.Time
	DeviceFingerprint string
	IPAddress         string
	Latitude          *float64
	Longitude         *float64
}
