package models

import (
	"time"

	id "punchclock/pkg/domain"
)

// NetworkSignals is a point-in-time snapshot of the client's network and
// device. Empty strings and nil pointers mean the value was not observed.
type NetworkSignals struct {
	SessionID         id.SessionID
	ConnectionType    string   // wifi, cellular, ethernet...
	EffectiveType     string   // 4g, 3g...
	DownlinkMbps      *float64 // nil when the client did not report it
	RTTMillis         *int
	NetworkName       string // SSID or equivalent
	IPAddress         string
	IPIntel           *IPIntel
	Timezone          string
	Locale            string
	Platform          string
	Browser           string
	IsBot             bool
	ScreenResolution  string
	DeviceFingerprint string
	CapturedAt        time.Time
	// Degraded names the sub-lookups that failed or timed out.
	Degraded []string
}

// IsDegraded reports whether any sub-lookup failed.
func (s NetworkSignals) IsDegraded() bool {
	return len(s.Degraded) > 0
}

// IPIntel is the IP/network intelligence verdict for an address.
type IPIntel struct {
	IP           string
	Country      string
	City         string
	Latitude     *float64
	Longitude    *float64
	Timezone     string
	ISP          string
	Org          string
	IsVPN        bool
	IsProxy      bool
	IsDatacenter bool
	IsTor        bool
	IsPrivate    bool
	CheckedAt    time.Time
}

// ClientHints are the values the client reports about itself alongside a
// punch. They seed the signal snapshot before server-side enrichment.
type ClientHints struct {
	ConnectionType   string
	EffectiveType    string
	DownlinkMbps     *float64
	RTTMillis        *int
	NetworkName      string
	Timezone         string
	Locale           string
	ScreenResolution string
}
