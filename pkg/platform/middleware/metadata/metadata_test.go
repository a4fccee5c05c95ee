package metadata

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"punchclock/pkg/requestcontext"
)

func TestResolver_ClientIP(t *testing.T) {
	proxied, err := NewResolver([]string{"10.0.0.0/8", "192.0.2.250"})
	require.NoError(t, err)

	tests := []struct {
		name     string
		resolver *Resolver
		headers  map[string]string
		remote   string
		want     string
	}{
		{"untrusted peer ignores forwarded private address", direct, map[string]string{"X-Forwarded-For": "10.0.0.1"}, "198.51.100.9:4000", "198.51.100.9"},
		{"untrusted peer ignores real ip", direct, map[string]string{"X-Real-IP": "192.168.1.1"}, "198.51.100.9:4000", "198.51.100.9"},
		{"trusted proxy forwards client", proxied, map[string]string{"X-Forwarded-For": "203.0.113.7"}, "10.0.0.2:4000", "203.0.113.7"},
		{"spoofed leading hop is skipped", proxied, map[string]string{"X-Forwarded-For": "10.9.9.9, 203.0.113.7, 10.0.0.3"}, "10.0.0.2:4000", "203.0.113.7"},
		{"single trusted address", proxied, map[string]string{"X-Real-IP": " 198.51.100.4 "}, "192.0.2.250:80", "198.51.100.4"},
		{"cloudflare header", proxied, map[string]string{"CF-Connecting-IP": "198.51.100.9"}, "10.0.0.2:4000", "198.51.100.9"},
		{"garbage header falls back to peer", proxied, map[string]string{"X-Forwarded-For": "not-an-ip"}, "10.0.0.2:4000", "10.0.0.2"},
		{"garbage hop stops the walk", proxied, map[string]string{"X-Forwarded-For": "203.0.113.7, junk"}, "10.0.0.2:4000", "10.0.0.2"},
		{"falls through to next header", proxied, map[string]string{"X-Forwarded-For": "junk", "X-Real-IP": "198.51.100.5"}, "10.0.0.2:4000", "198.51.100.5"},
		{"mapped ipv4 is unmapped", direct, nil, "[::ffff:198.51.100.9]:443", "198.51.100.9"},
		{"remote addr ipv6", direct, nil, "[2001:db8::1]:443", "2001:db8::1"},
		{"remote addr without port", direct, nil, "192.0.2.44", "192.0.2.44"},
		{"unparseable remote", direct, nil, "pipe", ""},
		{"nothing usable", direct, nil, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			assert.Equal(t, tt.want, tt.resolver.ClientIP(req))
		})
	}
}

func TestNewResolver_RejectsMalformedProxies(t *testing.T) {
	_, err := NewResolver([]string{"10.0.0.0/33"})
	assert.Error(t, err)
	_, err = NewResolver([]string{"proxy.internal"})
	assert.Error(t, err)

	r, err := NewResolver([]string{"", " "})
	require.NoError(t, err)
	assert.Empty(t, r.trusted)
}

func TestClientMetadata(t *testing.T) {
	var ip, ua string
	h := ClientMetadata(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		ip = requestcontext.ClientIP(r.Context())
		ua = requestcontext.UserAgent(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.4:5000"
	req.Header.Set("X-Real-IP", "10.1.1.1")
	req.Header.Set("User-Agent", "Mozilla/5.0")
	h.ServeHTTP(httptest.NewRecorder(), req)

	assert.Equal(t, "198.51.100.4", ip)
	assert.Equal(t, "Mozilla/5.0", ua)
}
