package sysnet

import (
	"context"
	"net"
)

// Resolver resolves the host name to the network address.
type Resolver interface {
	// Resolve hostname, e.g. "my-pc.local.".
	Resolve(ctx context.Context, hostname string) (net.Addr, error)
}
