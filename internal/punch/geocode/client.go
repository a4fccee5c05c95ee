package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"punchclock/internal/punch/models"
	"punchclock/pkg/platform/sentinel"
)

const maxResponseBytes = 64 << 10

// Client resolves coordinates into a street address using a
// Nominatim-compatible /reverse endpoint.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// New creates a reverse geocoding client. The timeout bounds a single lookup.
func New(baseURL, userAgent string, timeout time.Duration) *Client {
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		userAgent: userAgent,
		http:      &http.Client{Timeout: timeout},
	}
}

// Reverse returns the address at the given coordinates. A 429 from the
// upstream is reported as sentinel.ErrRateLimited so callers can back off.
func (c *Client) Reverse(ctx context.Context, lat, lon float64) (*models.Address, error) {
	q := url.Values{}
	q.Set("format", "jsonv2")
	q.Set("addressdetails", "1")
	q.Set("zoom", "18")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build reverse request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("reverse geocode: %w", err)
		}
		return nil, fmt.Errorf("reverse geocode: %w: %v", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read reverse response: %w", err)
	}
	return parseReverseResponse(resp.StatusCode, body)
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
	Address     struct {
		HouseNumber   string `json:"house_number"`
		Road          string `json:"road"`
		Pedestrian    string `json:"pedestrian"`
		Suburb        string `json:"suburb"`
		Neighbourhood string `json:"neighbourhood"`
		City          string `json:"city"`
		Town          string `json:"town"`
		Village       string `json:"village"`
		State         string `json:"state"`
		Postcode      string `json:"postcode"`
		Country       string `json:"country"`
	} `json:"address"`
}

func parseReverseResponse(status int, body []byte) (*models.Address, error) {
	switch {
	case status == http.StatusTooManyRequests:
		return nil, fmt.Errorf("reverse geocode: %w", sentinel.ErrRateLimited)
	case status >= 500:
		return nil, fmt.Errorf("reverse geocode status %d: %w", status, sentinel.ErrUnavailable)
	case status != http.StatusOK:
		return nil, fmt.Errorf("reverse geocode: unexpected status %d", status)
	}

	var r reverseResponse
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("decode reverse response: %w", err)
	}
	if r.Error != "" {
		return nil, fmt.Errorf("reverse geocode: %w: %s", sentinel.ErrNotFound, r.Error)
	}

	a := r.Address
	return &models.Address{
		HouseNumber:  a.HouseNumber,
		Street:       firstNonEmpty(a.Road, a.Pedestrian),
		Neighborhood: firstNonEmpty(a.Suburb, a.Neighbourhood),
		City:         firstNonEmpty(a.City, a.Town, a.Village),
		State:        a.State,
		PostalCode:   a.Postcode,
		Country:      a.Country,
		DisplayName:  r.DisplayName,
	}, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
