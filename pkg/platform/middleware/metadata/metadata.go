package metadata

import (
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strings"

	"punchclock/pkg/requestcontext"
)

// forwardedHeaders are consulted in order, and only for requests that arrive
// through a trusted proxy.
var forwardedHeaders = []string{
	"X-Forwarded-For",
	"X-Real-IP",
	"CF-Connecting-IP",
	"X-Client-IP",
}

// Resolver derives the client address of a request. Forwarding headers are
// client-controlled, so they are honoured only when the direct peer is one of
// the trusted proxies; otherwise the peer address is the client.
type Resolver struct {
	trusted []netip.Prefix
}

// NewResolver accepts CIDR prefixes or single addresses. An empty list trusts
// no proxy.
func NewResolver(trustedProxies []string) (*Resolver, error) {
	r := &Resolver{}
	for _, raw := range trustedProxies {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if strings.Contains(raw, "/") {
			prefix, err := netip.ParsePrefix(raw)
			if err != nil {
				return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
			}
			r.trusted = append(r.trusted, prefix.Masked())
			continue
		}
		addr, err := netip.ParseAddr(raw)
		if err != nil {
			return nil, fmt.Errorf("trusted proxy %q: %w", raw, err)
		}
		addr = addr.Unmap()
		r.trusted = append(r.trusted, netip.PrefixFrom(addr, addr.BitLen()))
	}
	return r, nil
}

var direct = &Resolver{}

// ClientMetadata extracts client IP address and User-Agent from the request
// and adds them to the context for use by handlers and services. It trusts
// no proxy; deployments behind one use NewResolver(...).Middleware.
func ClientMetadata(next http.Handler) http.Handler {
	return direct.Middleware(next)
}

// ClientIPFromRequest is the peer address of r, ignoring forwarding headers.
func ClientIPFromRequest(r *http.Request) string {
	return direct.ClientIP(r)
}

// Middleware stores the resolved client IP and User-Agent in the request context.
func (res *Resolver) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithClientMetadata(r.Context(), res.ClientIP(r), r.Header.Get("User-Agent"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP returns the client address in canonical form, or "" when nothing
// usable is present.
func (res *Resolver) ClientIP(r *http.Request) string {
	peer, ok := peerAddr(r.RemoteAddr)
	if !ok {
		return ""
	}
	if !res.isTrusted(peer) {
		return peer.String()
	}
	for _, h := range forwardedHeaders {
		v := r.Header.Get(h)
		if v == "" {
			continue
		}
		if addr, ok := res.fromHeader(v); ok {
			return addr.String()
		}
	}
	return peer.String()
}

// fromHeader walks a comma-separated hop list from the nearest hop outwards
// and returns the first address that is not one of our proxies. Anything
// that does not parse ends the walk: hops beyond it cannot be trusted.
func (res *Resolver) fromHeader(v string) (netip.Addr, bool) {
	hops := strings.Split(v, ",")
	for i := len(hops) - 1; i >= 0; i-- {
		addr, err := netip.ParseAddr(strings.TrimSpace(hops[i]))
		if err != nil {
			return netip.Addr{}, false
		}
		addr = addr.Unmap().WithZone("")
		if !res.isTrusted(addr) {
			return addr, true
		}
	}
	return netip.Addr{}, false
}

func (res *Resolver) isTrusted(addr netip.Addr) bool {
	for _, p := range res.trusted {
		if p.Contains(addr) {
			return true
		}
	}
	return false
}

func peerAddr(remote string) (netip.Addr, bool) {
	if remote == "" {
		return netip.Addr{}, false
	}
	host := remote
	if h, _, err := net.SplitHostPort(remote); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return netip.Addr{}, false
	}
	return addr.Unmap().WithZone(""), true
}
