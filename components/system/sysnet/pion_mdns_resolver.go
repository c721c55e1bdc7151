package sysnet

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/pion/mdns"
	"golang.org/x/net/ipv4"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// PionMdnsResolver resolves ".local" host names with the pure Go mDNS library.
//
// Remarks:
//   - The engine resolves service instances, this resolver covers bare host names,
//     e.g. the hostname of a discovered service when its addresses changed.
//   - Go resolver behaves differently depending on the environment it's running in,
//     e.g. it can't resolve mDNS names in a container without CGO.
type PionMdnsResolver struct {
	mu     sync.Mutex
	conn   *mdns.Conn
	closed bool
}

// Resolve mDNS hostname with pion library.
//
// Remarks:
//   - Can be used from multiple goroutines.
func (r *PionMdnsResolver) Resolve(ctx context.Context, hostname string) (net.Addr, error) {
	if !IsLocalHostname(hostname) {
		return nil, fmt.Errorf("pion-mdns-resolver: %w: unsupported hostname: %s",
			status.StatusInvalidArg, hostname)
	}

	conn, err := r.getConn()
	if err != nil {
		return nil, err
	}

	_, addr, err := conn.Query(ctx, strings.TrimSuffix(hostname, "."))
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("pion-mdns-resolver: %w: hostname=%s",
				status.StatusTimeout, hostname)
		}

		return nil, fmt.Errorf("pion-mdns-resolver: failed to resolve: hostname=%s: %w",
			hostname, err)
	}

	return addr, nil
}

// Close the underlying mDNS connection.
func (r *PionMdnsResolver) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true

	if r.conn != nil {
		conn := r.conn
		r.conn = nil

		return conn.Close()
	}

	return nil
}

func (r *PionMdnsResolver) getConn() (*mdns.Conn, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("pion-mdns-resolver: %w", status.StatusClosed)
	}

	if r.conn != nil {
		return r.conn, nil
	}

	// UDP Connection is closed when the mDNS connection is closed.
	udpConn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return nil, fmt.Errorf("pion-mdns-resolver: failed to create UDP connection: %w", err)
	}

	mdnsConn, err := mdns.Server(ipv4.NewPacketConn(udpConn), &mdns.Config{})
	if err != nil {
		_ = udpConn.Close()

		return nil, fmt.Errorf("pion-mdns-resolver: failed to create mDNS connection: %w", err)
	}

	r.conn = mdnsConn

	return mdnsConn, nil
}

// IsLocalHostname reports whether the hostname belongs to the ".local" domain.
func IsLocalHostname(hostname string) bool {
	hostname = strings.ToLower(strings.TrimSuffix(hostname, "."))

	return strings.HasSuffix(hostname, ".local") && len(hostname) > len(".local")
}
