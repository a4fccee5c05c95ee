package signals

import (
	"encoding/hex"
	"strings"

	"github.com/mssola/useragent"
	"golang.org/x/crypto/blake2b"
)

// Device is the browser and platform metadata extracted from a User-Agent.
type Device struct {
	Platform string
	Browser  string
	IsBot    bool
	IsMobile bool
}

// ParseDevice extracts device metadata from a User-Agent string. Clients that
// identify as command-line HTTP tools are reported as bots.
func ParseDevice(userAgent string) Device {
	userAgent = strings.TrimSpace(userAgent)
	if userAgent == "" {
		return Device{}
	}
	ua := useragent.New(userAgent)
	name, version := ua.Browser()
	browser := strings.TrimSpace(name + " " + version)

	platform := ua.OS()
	if platform == "" {
		platform = ua.Platform()
	}
	return Device{
		Platform: platform,
		Browser:  browser,
		IsBot:    ua.Bot() || looksScripted(userAgent),
		IsMobile: ua.Mobile(),
	}
}

var scriptedAgents = []string{"curl/", "wget/", "python-requests", "go-http-client", "okhttp", "headlesschrome", "phantomjs", "selenium"}

func looksScripted(userAgent string) bool {
	lower := strings.ToLower(userAgent)
	for _, marker := range scriptedAgents {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

// Fingerprint derives a stable device identifier from attributes that do not
// change between punches of the same device. An empty input yields "".
func Fingerprint(userAgent, screenResolution, timezone, locale string) string {
	if userAgent == "" && screenResolution == "" && timezone == "" && locale == "" {
		return ""
	}
	sum := blake2b.Sum256([]byte(strings.Join([]string{userAgent, screenResolution, timezone, locale}, "\x1f")))
	return hex.EncodeToString(sum[:16])
}
