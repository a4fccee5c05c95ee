package ipintel

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"punchclock/internal/punch/models"
	"punchclock/pkg/platform/sentinel"
)

// stubLookup answers with a fixed verdict. rewrite, when set, replaces the
// address echoed back, as providers that expand IPv6 do.
type stubLookup struct {
	calls   atomic.Int32
	intel   *models.IPIntel
	err     error
	rewrite string
}

func (s *stubLookup) Lookup(_ context.Context, ip string) (*models.IPIntel, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	out := *s.intel
	out.IP = ip
	if s.rewrite != "" {
		out.IP = s.rewrite
	}
	return &out, nil
}

type AnalyzerSuite struct {
	suite.Suite
	lookup   *stubLookup
	analyzer *Analyzer
}

func TestAnalyzerSuite(t *testing.T) {
	suite.Run(t, new(AnalyzerSuite))
}

func (s *AnalyzerSuite) SetupTest() {
	s.lookup = &stubLookup{intel: &models.IPIntel{Org: "Hetzner Online GmbH", IsDatacenter: true}}
	a, err := NewAnalyzer(s.lookup)
	s.Require().NoError(err)
	s.analyzer = a
}

func (s *AnalyzerSuite) TestPrivateAddressSkipsLookup() {
	intel, err := s.analyzer.Analyze(context.Background(), "192.168.0.12")
	s.Require().NoError(err)
	s.True(intel.IsPrivate)
	s.Zero(s.lookup.calls.Load())
}

func (s *AnalyzerSuite) TestVerdictIsCached() {
	ctx := context.Background()
	first, err := s.analyzer.Analyze(ctx, "203.0.113.7")
	s.Require().NoError(err)
	second, err := s.analyzer.Analyze(ctx, "203.0.113.7")
	s.Require().NoError(err)

	s.Equal(int32(1), s.lookup.calls.Load())
	s.Equal(first.Org, second.Org)
	s.True(second.IsDatacenter)
}

func (s *AnalyzerSuite) TestEquivalentSpellingsShareCacheEntry() {
	ctx := context.Background()
	s.lookup.rewrite = "2001:0db8:0000:0000:0000:0000:0000:0042"

	_, err := s.analyzer.Analyze(ctx, "2001:db8::42")
	s.Require().NoError(err)
	_, err = s.analyzer.Analyze(ctx, "2001:DB8:0:0::42")
	s.Require().NoError(err)
	_, err = s.analyzer.Analyze(ctx, " 2001:db8::42 ")
	s.Require().NoError(err)

	s.Equal(int32(1), s.lookup.calls.Load())
}

func (s *AnalyzerSuite) TestMalformedAddressSkipsLookup() {
	for _, ip := range []string{"not-an-ip", "203.0.113.7, 10.0.0.1", "999.1.1.1"} {
		_, err := s.analyzer.Analyze(context.Background(), ip)
		s.ErrorIs(err, sentinel.ErrInvalidInput, ip)
	}
	s.Zero(s.lookup.calls.Load())
}

func (s *AnalyzerSuite) TestLookupFailureIsReturned() {
	s.lookup.err = sentinel.ErrRateLimited
	_, err := s.analyzer.Analyze(context.Background(), "203.0.113.8")
	s.ErrorIs(err, sentinel.ErrRateLimited)
}

func (s *AnalyzerSuite) TestEmptyAddress() {
	_, err := s.analyzer.Analyze(context.Background(), " ")
	s.ErrorIs(err, sentinel.ErrInvalidInput)
}

func TestNewAnalyzer_RequiresLookup(t *testing.T) {
	_, err := NewAnalyzer(nil)
	assert.Error(t, err)
}

func TestMemoryCache_Expires(t *testing.T) {
	c := NewMemoryCache()
	now := time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(context.Background(), "203.0.113.9", &models.IPIntel{IP: "203.0.113.9"}, time.Hour))
	_, ok, _ := c.Get(context.Background(), "203.0.113.9")
	assert.True(t, ok)

	now = now.Add(time.Hour)
	_, ok, _ = c.Get(context.Background(), "203.0.113.9")
	assert.False(t, ok)
}

func TestClient_Lookup(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/198.51.100.4/json/":
			_, _ = w.Write([]byte(`{"ip":"198.51.100.4","city":"Frankfurt","country_code":"DE",
				"latitude":50.11,"longitude":8.68,"timezone":"Europe/Berlin","asn":"AS60068",
				"org":"Datacamp Limited","hostname":"unn-198-51-100-4.cdn77.com.expressvpn.net"}`))
		case "/198.51.100.5/json/":
			_, _ = w.Write([]byte(`{"error":true,"reason":"RateLimited"}`))
		case "/198.51.100.7/json/":
			_, _ = w.Write([]byte(`{"error":true,"reason":"Reserved IP Address"}`))
		case "/bogus/json/":
			w.WriteHeader(http.StatusBadRequest)
		default:
			w.WriteHeader(http.StatusTooManyRequests)
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)

	intel, err := c.Lookup(context.Background(), "198.51.100.4")
	require.NoError(t, err)
	assert.Equal(t, "DE", intel.Country)
	assert.Equal(t, "Europe/Berlin", intel.Timezone)
	require.NotNil(t, intel.Latitude)
	assert.InDelta(t, 50.11, *intel.Latitude, 1e-9)
	assert.True(t, intel.IsVPN)
	assert.False(t, intel.CheckedAt.IsZero())

	_, err = c.Lookup(context.Background(), "198.51.100.5")
	assert.True(t, errors.Is(err, sentinel.ErrRateLimited), "in-band quota error")

	_, err = c.Lookup(context.Background(), "198.51.100.6")
	assert.ErrorIs(t, err, sentinel.ErrRateLimited)

	_, err = c.Lookup(context.Background(), "198.51.100.7")
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput, "in-band address error")

	_, err = c.Lookup(context.Background(), "bogus")
	assert.ErrorIs(t, err, sentinel.ErrInvalidInput)
	assert.NotErrorIs(t, err, sentinel.ErrUnavailable)
}
