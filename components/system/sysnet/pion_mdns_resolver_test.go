package sysnet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/status"
)

func TestIsLocalHostname(t *testing.T) {
	for _, hostname := range []string{
		"my-pc.local",
		"my-pc.local.",
		"My-PC.LOCAL.",
	} {
		require.True(t, IsLocalHostname(hostname), hostname)
	}

	for _, hostname := range []string{
		"",
		".local",
		"local.",
		"my-pc.example.com",
		"my-pc.localhost",
	} {
		require.False(t, IsLocalHostname(hostname), hostname)
	}
}

func TestPionMdnsResolverUnsupportedHostname(t *testing.T) {
	resolver := &PionMdnsResolver{}
	defer resolver.Close() //nolint:errcheck

	addr, err := resolver.Resolve(context.Background(), "example.com")
	require.ErrorIs(t, err, status.StatusInvalidArg)
	require.Nil(t, addr)
}

func TestPionMdnsResolverClosed(t *testing.T) {
	resolver := &PionMdnsResolver{}
	require.Nil(t, resolver.Close())

	addr, err := resolver.Resolve(context.Background(), "my-pc.local.")
	require.ErrorIs(t, err, status.StatusClosed)
	require.Nil(t, addr)
}
