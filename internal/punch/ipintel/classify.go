package ipintel

import (
	"net/netip"
	"strings"

	"punchclock/internal/punch/models"
)

var (
	datacenterKeywords = []string{
		"amazon", "aws", "google cloud", "microsoft azure", "digitalocean", "linode",
		"ovh", "hetzner", "vultr", "contabo", "oracle cloud", "alibaba cloud",
		"hosting", "data center", "datacenter", "server", "cloud",
	}
	vpnKeywords = []string{
		"vpn", "nordvpn", "expressvpn", "surfshark", "cyberghost",
		"private internet access", "protonvpn", "tunnelbear", "windscribe", "mullvad",
	}
	proxyKeywords = []string{"proxy", "anonymizer", "vpn gate", "tor exit"}
	torKeywords   = []string{"tor exit", "tor-exit", "torproject"}
)

// Per-flag contributions to the IP risk score.
const (
	weightVPN        = 0.4
	weightProxy      = 0.4
	weightTor        = 0.8
	weightDatacenter = 0.5
)

// IsPrivate reports whether ip is loopback, RFC 1918, link-local or
// unspecified. Unparseable input is not private.
func IsPrivate(ip string) bool {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	return addr.IsPrivate() || addr.IsLoopback() || addr.IsLinkLocalUnicast() || addr.IsUnspecified()
}

// Classify sets the anonymizer flags on intel from its organisation, ISP and
// the reverse hostname.
func Classify(intel *models.IPIntel, hostname string) {
	if intel == nil {
		return
	}
	owner := strings.ToLower(intel.Org + " " + intel.ISP)
	host := strings.ToLower(hostname)

	intel.IsDatacenter = containsAny(owner, datacenterKeywords)
	intel.IsVPN = containsAny(owner, vpnKeywords) || containsAny(host, vpnKeywords) || hasWord(host, "pia")
	intel.IsProxy = containsAny(owner, proxyKeywords) || containsAny(host, []string{"proxy"})
	intel.IsTor = containsAny(owner, torKeywords) || containsAny(host, torKeywords)
}

// Score returns the IP risk in [0, 1].
func Score(intel *models.IPIntel) float64 {
	if intel == nil || intel.IsPrivate {
		return 0
	}
	var s float64
	if intel.IsVPN {
		s += weightVPN
	}
	if intel.IsProxy {
		s += weightProxy
	}
	if intel.IsTor {
		s += weightTor
	}
	if intel.IsDatacenter {
		s += weightDatacenter
	}
	if s > 1 {
		return 1
	}
	return s
}

func containsAny(s string, keywords []string) bool {
	if s == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}

// hasWord matches short tokens only at label boundaries so "pia" does not
// fire inside unrelated hostnames.
func hasWord(s, word string) bool {
	for _, part := range strings.FieldsFunc(s, func(r rune) bool {
		return r == '.' || r == '-' || r == ' '
	}) {
		if part == word {
			return true
		}
	}
	return false
}
