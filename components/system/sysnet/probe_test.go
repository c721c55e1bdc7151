package sysnet

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/status"
)

func TestListenMulticastInvalidGroup(t *testing.T) {
	for _, group := range []net.IP{
		nil,
		net.IPv4(192, 168, 1, 1),
		net.ParseIP("ff02::fb"),
	} {
		conn, err := ListenMulticast(MulticastParams{Group: group})
		require.ErrorIs(t, err, status.StatusInvalidArg)
		require.Nil(t, conn)
	}
}

func TestProbeReportsEveryCheck(t *testing.T) {
	results := Probe(ProbeParams{
		// Port is never used by mDNS, the check result is predictable enough.
		Port:    0,
		Group:   net.IPv4(224, 0, 0, 251),
		Timeout: time.Millisecond * 200,
	})

	require.GreaterOrEqual(t, len(results), 3)
	require.Equal(t, "multicast-loopback", results[0].Check)
	require.Equal(t, "port-0", results[1].Check)
	require.True(t, results[1].OK)

	for _, result := range results {
		require.NotEmpty(t, result.Detail)
	}
}
