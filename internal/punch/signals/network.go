package signals

import (
	"context"
	"errors"
	"net"
	"strings"
)

// NetworkNameResolver resolves a human-meaningful name for the client's
// network: the SSID the client reported or, failing that, the reverse DNS
// name of its address.
type NetworkNameResolver interface {
	ResolveNetworkName(ctx context.Context, req SessionRequest) (string, error)
}

// AddrLookuper is satisfied by *net.Resolver.
type AddrLookuper interface {
	LookupAddr(ctx context.Context, addr string) ([]string, error)
}

// DNSResolver prefers the client-reported network name and falls back to a
// PTR lookup.
type DNSResolver struct {
	lookup AddrLookuper
}

func NewDNSResolver(lookup AddrLookuper) *DNSResolver {
	if lookup == nil {
		lookup = net.DefaultResolver
	}
	return &DNSResolver{lookup: lookup}
}

func (r *DNSResolver) ResolveNetworkName(ctx context.Context, req SessionRequest) (string, error) {
	if name := strings.TrimSpace(req.Hints.NetworkName); name != "" {
		return name, nil
	}
	if req.IPAddress == "" {
		return "", nil
	}
	names, err := r.lookup.LookupAddr(ctx, req.IPAddress)
	if err != nil {
		var dnsErr *net.DNSError
		if errors.As(err, &dnsErr) && dnsErr.IsNotFound {
			return "", nil
		}
		return "", err
	}
	if len(names) == 0 {
		return "", nil
	}
	return strings.TrimSuffix(names[0], "."), nil
}
