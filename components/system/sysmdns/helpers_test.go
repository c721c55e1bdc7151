package sysmdns_test

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns/sysmdnstest"
)

const testEventTimeout = 5 * time.Second

var testLoopbackAddr = net.ParseIP("192.0.2.10")

func newTestNetwork(ttl uint32) *sysmdnstest.LoopbackNetwork {
	return sysmdnstest.NewLoopbackNetwork(sysmdnstest.LoopbackNetworkParams{
		TTL:  ttl,
		Addr: testLoopbackAddr,
	})
}

type testTransport struct {
	*sysmdnstest.LoopbackTransport

	openErr error

	mu     sync.Mutex
	closed bool
}

func (t *testTransport) Open() error {
	return t.openErr
}

func (t *testTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.closed = true

	return nil
}

func (t *testTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.closed
}

func newTestTransport(network *sysmdnstest.LoopbackNetwork) *testTransport {
	return &testTransport{LoopbackTransport: network.NewTransport()}
}

var errTestOpen = errors.New("address in use")

// testRefreshTransport answers the first query only, the following queries either
// fail with queryErr or report nothing.
type testRefreshTransport struct {
	*sysmdnstest.LoopbackTransport

	queryErr   error
	queryCount atomic.Int32
}

func (t *testRefreshTransport) Query(
	ctx context.Context,
	serviceType sysmdns.ServiceType,
	selection sysmdns.InterfaceSelection,
	handler func(record *sysmdns.ServiceRecord),
) error {
	if t.queryCount.Add(1) == 1 {
		return t.LoopbackTransport.Query(ctx, serviceType, selection, handler)
	}

	return t.queryErr
}

var errTestQuery = errors.New("network is unreachable")

func waitEvent(t *testing.T, sub *sysmdns.Subscription) sysmdns.Event {
	t.Helper()

	timer := time.NewTimer(testEventTimeout)
	defer timer.Stop()

	for {
		if event, ok := sub.TryRecv(); ok {
			return event
		}

		select {
		case <-sub.C():
		case <-timer.C:
			require.FailNow(t, "timeout waiting for event", "type=%s", sub.ServiceType())
		}
	}
}

func waitEventKind(t *testing.T, sub *sysmdns.Subscription, kind sysmdns.EventKind) sysmdns.Event {
	t.Helper()

	for {
		event := waitEvent(t, sub)
		if event.Kind == kind {
			return event
		}
	}
}
