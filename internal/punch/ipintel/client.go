package ipintel

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"punchclock/internal/punch/models"
	"punchclock/pkg/platform/sentinel"
)

const maxResponseBytes = 32 << 10

// Client queries an ipapi.co compatible endpoint: GET {base}/{ip}/json/.
type Client struct {
	baseURL string
	http    *http.Client
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
		now:     time.Now,
	}
}

// Lookup fetches and classifies ip. The hostname, when the provider returns
// one, feeds VPN and proxy detection.
func (c *Client) Lookup(ctx context.Context, ip string) (*models.IPIntel, error) {
	endpoint := fmt.Sprintf("%s/%s/json/", c.baseURL, url.PathEscape(ip))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build ip lookup request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ip lookup: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read ip lookup response: %w", err)
	}
	intel, err := parseLookupResponse(resp.StatusCode, body)
	if err != nil {
		return nil, err
	}
	if intel.IP == "" {
		intel.IP = ip
	}
	intel.CheckedAt = c.now().UTC()
	return intel, nil
}

type lookupResponse struct {
	IP          string   `json:"ip"`
	City        string   `json:"city"`
	Region      string   `json:"region"`
	CountryName string   `json:"country_name"`
	CountryCode string   `json:"country_code"`
	Latitude    *float64 `json:"latitude"`
	Longitude   *float64 `json:"longitude"`
	Timezone    string   `json:"timezone"`
	ASN         string   `json:"asn"`
	Org         string   `json:"org"`
	Hostname    string   `json:"hostname"`
	Error       bool     `json:"error"`
	Reason      string   `json:"reason"`
}

func parseLookupResponse(status int, body []byte) (*models.IPIntel, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("ip lookup: %w", sentinel.ErrRateLimited)
	case status >= 500:
		return nil, fmt.Errorf("ip lookup status %d: %w", status, sentinel.ErrUnavailable)
	case status >= 400:
		return nil, fmt.Errorf("ip lookup status %d: %w", status, sentinel.ErrInvalidInput)
	case status != http.StatusOK:
		return nil, fmt.Errorf("ip lookup: unexpected status %d", status)
	}

	var r lookupResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode ip lookup response: %w", err)
	}
	if r.Error {
		// ipapi.co reports quota exhaustion in-band with a 200.
		if strings.Contains(strings.ToLower(r.Reason), "ratelimit") {
			return nil, fmt.Errorf("ip lookup: %w", sentinel.ErrRateLimited)
		}
		// Reserved and malformed addresses are also reported in-band.
		return nil, fmt.Errorf("ip lookup: %s: %w", r.Reason, sentinel.ErrInvalidInput)
	}

	intel := &models.IPIntel{
		IP:        r.IP,
		Country:   r.CountryCode,
		City:      r.City,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Timezone:  r.Timezone,
		ISP:       r.ASN,
		Org:       r.Org,
	}
	Classify(intel, r.Hostname)
	return intel, nil
}
