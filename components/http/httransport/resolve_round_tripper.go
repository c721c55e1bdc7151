package httransport

import (
	"fmt"
	"net"
	"net/http"

	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

// ResolveRoundTripper resolves ".local" hosts before performing an HTTP transaction.
//
// Remarks:
//   - Hosts outside of the ".local" domain are passed as is.
type ResolveRoundTripper struct {
	rs sysnet.Resolver
	rt http.RoundTripper
}

// NewResolveRoundTripper is an initialization of ResolveRoundTripper.
//
// Parameters:
//   - rs to resolve HTTP addresses.
//   - rt to perform an actual HTTP transaction.
func NewResolveRoundTripper(rs sysnet.Resolver, rt http.RoundTripper) *ResolveRoundTripper {
	return &ResolveRoundTripper{
		rs: rs,
		rt: rt,
	}
}

// RoundTrip resolves HTTP address and performs HTTP transaction.
func (r *ResolveRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	hostname := req.URL.Hostname()
	if !sysnet.IsLocalHostname(hostname) {
		return r.rt.RoundTrip(req)
	}

	addr, err := r.rs.Resolve(req.Context(), hostname)
	if err != nil {
		return nil, fmt.Errorf(
			"resolve-round-tripper: failed to resolve HTTP address: hostname=%s: %w",
			hostname, err)
	}

	ip := sysnet.AddrIP(addr)
	if ip == nil {
		return nil, fmt.Errorf(
			"resolve-round-tripper: unsupported address: hostname=%s addr=%s", hostname, addr)
	}

	resolved := req.Clone(req.Context())

	if port := req.URL.Port(); port != "" {
		resolved.URL.Host = net.JoinHostPort(ip.String(), port)
	} else if ip.To4() == nil {
		resolved.URL.Host = "[" + ip.String() + "]"
	} else {
		resolved.URL.Host = ip.String()
	}

	return r.rt.RoundTrip(resolved)
}
