package sysmdns_test

import (
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/status"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns/sysmdnstest"
)

const testServiceType = "_testsvc._tcp.local."

func newTestEngine(
	t *testing.T,
	network *sysmdnstest.LoopbackNetwork,
	params sysmdns.EngineParams,
) *sysmdns.MdnsEngine {
	t.Helper()

	engine, err := sysmdns.NewMdnsEngine(network.NewTransport(), params)
	require.Nil(t, err)

	t.Cleanup(func() {
		require.Nil(t, engine.Shutdown())
	})

	return engine
}

func newTestRecord(t *testing.T, instance string, port uint16) *sysmdns.ServiceRecord {
	t.Helper()

	record, err := sysmdns.NewServiceRecord(instance, testServiceType, "test-host.local.", port,
		sysmdns.Metadata{{Key: "k", Value: "v"}})
	require.Nil(t, err)

	return record
}

func TestMdnsEngineLocalDiscovery(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	record := newTestRecord(t, "Test Server", 1234)
	require.Nil(t, engine.Register(record))

	event := waitEventKind(t, sub, sysmdns.EventResolved)
	require.Equal(t, record.Fullname(), event.Fullname)
	require.Equal(t, "Test Server", event.Service.Instance)
	require.Equal(t, uint16(1234), event.Service.Port)
	require.Equal(t, "test-host.local.", event.Service.Hostname)
	require.Equal(t, map[string]string{"k": "v"}, event.Service.Metadata.Map())
	require.NotEmpty(t, event.Service.Addrs)

	statusCh, err := engine.Unregister(record.Fullname())
	require.Nil(t, err)
	require.Equal(t, sysmdns.UnregisterOK, <-statusCh)

	event = waitEventKind(t, sub, sysmdns.EventRemoved)
	require.Equal(t, record.Fullname(), event.Fullname)
	require.Nil(t, event.Service)
}

func TestMdnsEngineReplayOnBrowse(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	record := newTestRecord(t, "early-bird", 4000)
	require.Nil(t, engine.Register(record))

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	event := waitEvent(t, sub)
	require.Equal(t, sysmdns.EventResolved, event.Kind)
	require.Equal(t, record.Fullname(), event.Fullname)
}

func TestMdnsEngineIgnoresOwnAnnouncements(t *testing.T) {
	network := newTestNetwork(sysmdns.DefaultRecordTTL)
	engine := newTestEngine(t, network, sysmdns.DefaultEngineParams())

	require.Nil(t, engine.Register(newTestRecord(t, "self", 4001)))

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)
	require.Equal(t, sysmdns.EventResolved, waitEvent(t, sub).Kind)

	require.Eventually(t, func() bool {
		return network.QueryCount() == 1
	}, testEventTimeout, 10*time.Millisecond)

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, 0, sub.Len())
}

func TestMdnsEngineRegisterDuplicate(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	require.Nil(t, engine.Register(newTestRecord(t, "dup", 5000)))

	err := engine.Register(newTestRecord(t, "dup", 5001))
	require.True(t, errors.Is(err, status.StatusAlreadyExist))

	err = engine.Register(newTestRecord(t, "DUP", 5002))
	require.True(t, errors.Is(err, status.StatusAlreadyExist))
}

func TestMdnsEngineRegisterAfterUnregister(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	record := newTestRecord(t, "again", 5000)
	require.Nil(t, engine.Register(record))

	statusCh, err := engine.Unregister(record.Fullname())
	require.Nil(t, err)
	require.Equal(t, sysmdns.UnregisterOK, <-statusCh)

	require.Nil(t, engine.Register(record))
}

func TestMdnsEngineUnregisterUnknown(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	statusCh, err := engine.Unregister("ghost._testsvc._tcp.local.")
	require.True(t, errors.Is(err, status.StatusNoData))
	require.Nil(t, statusCh)
}

func TestMdnsEngineBrowseInvalidType(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	for _, serviceType := range []string{"", "_http._tcp", "http.tcp.local."} {
		sub, err := engine.Browse(serviceType)
		require.True(t, errors.Is(err, status.StatusInvalidArg), serviceType)
		require.Nil(t, sub)
	}
}

func TestMdnsEngineRemoteDiscovery(t *testing.T) {
	network := newTestNetwork(sysmdns.DefaultRecordTTL)

	advertiser := newTestEngine(t, network, sysmdns.DefaultEngineParams())
	browser := newTestEngine(t, network, sysmdns.DefaultEngineParams())

	sub, err := browser.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	record := newTestRecord(t, "remote", 6000)
	require.Nil(t, advertiser.Register(record))

	event := waitEventKind(t, sub, sysmdns.EventResolved)
	require.Equal(t, record.Fullname(), event.Fullname)
	require.Equal(t, uint16(6000), event.Service.Port)
	require.Equal(t, []string{"192.0.2.10"}, sysmdns.FormatAddrs(event.Service.Addrs))
	require.Equal(t, uint32(sysmdns.DefaultRecordTTL), event.Service.TTL)

	statusCh, err := advertiser.Unregister(record.Fullname())
	require.Nil(t, err)
	require.Equal(t, sysmdns.UnregisterOK, <-statusCh)

	event = waitEventKind(t, sub, sysmdns.EventRemoved)
	require.Equal(t, record.Fullname(), event.Fullname)
}

func TestMdnsEngineRecordExpiry(t *testing.T) {
	network := newTestNetwork(1)

	advertiser := newTestEngine(t, network, sysmdns.DefaultEngineParams())
	browser := newTestEngine(t, network, sysmdns.EngineParams{
		SweepInterval:   10 * time.Millisecond,
		RefreshInterval: time.Hour,
	})

	require.Nil(t, advertiser.Register(newTestRecord(t, "short-lived", 6001)))

	sub, err := browser.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	resolved := waitEventKind(t, sub, sysmdns.EventResolved)
	removed := waitEventKind(t, sub, sysmdns.EventRemoved)
	require.Equal(t, resolved.Fullname, removed.Fullname)
}

func TestMdnsEngineRefreshKeepsRecordAlive(t *testing.T) {
	network := newTestNetwork(1)

	advertiser := newTestEngine(t, network, sysmdns.DefaultEngineParams())
	browser := newTestEngine(t, network, sysmdns.EngineParams{
		SweepInterval:   10 * time.Millisecond,
		RefreshInterval: 200 * time.Millisecond,
	})

	require.Nil(t, advertiser.Register(newTestRecord(t, "long-lived", 6002)))

	sub, err := browser.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)
	require.Equal(t, sysmdns.EventResolved, waitEventKind(t, sub, sysmdns.EventResolved).Kind)

	time.Sleep(2 * time.Second)

	for sub.Len() > 0 {
		event, ok := sub.TryRecv()
		require.True(t, ok)
		require.NotEqual(t, sysmdns.EventRemoved, event.Kind)
	}
}

func TestMdnsEngineRemoveUnreportedRecord(t *testing.T) {
	network := newTestNetwork(4500)

	advertiser := newTestEngine(t, network, sysmdns.DefaultEngineParams())

	browser, err := sysmdns.NewMdnsEngine(
		&testRefreshTransport{LoopbackTransport: network.NewTransport()},
		sysmdns.EngineParams{
			SweepInterval:   10 * time.Millisecond,
			RefreshInterval: 50 * time.Millisecond,
		})
	require.Nil(t, err)

	t.Cleanup(func() {
		require.Nil(t, browser.Shutdown())
	})

	require.Nil(t, advertiser.Register(newTestRecord(t, "silent", 6003)))

	sub, err := browser.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	resolved := waitEventKind(t, sub, sysmdns.EventResolved)
	require.Equal(t, uint32(4500), resolved.Service.TTL)

	removed := waitEventKind(t, sub, sysmdns.EventRemoved)
	require.Equal(t, resolved.Fullname, removed.Fullname)
	require.Equal(t, 1, network.AnnouncementCount())
}

func TestMdnsEngineReportRefreshFailure(t *testing.T) {
	transport := &testRefreshTransport{
		LoopbackTransport: newTestNetwork(sysmdns.DefaultRecordTTL).NewTransport(),
		queryErr:          errTestQuery,
	}

	engine, err := sysmdns.NewMdnsEngine(transport, sysmdns.EngineParams{
		RefreshInterval: 20 * time.Millisecond,
	})
	require.Nil(t, err)

	t.Cleanup(func() {
		require.Nil(t, engine.Shutdown())
	})

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	event := waitEventKind(t, sub, sysmdns.EventError)
	require.True(t, errors.Is(event.Err, errTestQuery))
	require.False(t, sub.Closed())
}

func TestMdnsEngineStopBrowseIdentity(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	first, err := engine.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, first).Kind)

	second, err := engine.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, second).Kind)

	require.NotEqual(t, first.ID(), second.ID())

	require.Nil(t, engine.StopBrowse(first))
	require.Equal(t, sysmdns.EventSearchStopped, waitEvent(t, first).Kind)
	require.True(t, first.Closed())

	err = engine.StopBrowse(first)
	require.True(t, errors.Is(err, status.StatusNoData))

	require.Nil(t, engine.Register(newTestRecord(t, "after-stop", 7000)))

	require.Equal(t, sysmdns.EventResolved, waitEvent(t, second).Kind)
	require.False(t, second.Closed())
	require.Equal(t, 0, first.Len())
}

func TestMdnsEngineDisabledInterfaces(t *testing.T) {
	network := newTestNetwork(sysmdns.DefaultRecordTTL)
	engine := newTestEngine(t, network, sysmdns.DefaultEngineParams())

	require.Nil(t, engine.DisableAllInterfaces())

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	require.Nil(t, engine.Register(newTestRecord(t, "local-only", 7001)))

	event := waitEvent(t, sub)
	require.Equal(t, sysmdns.EventResolved, event.Kind)
	require.NotEmpty(t, event.Service.Addrs)

	require.Equal(t, 0, network.AnnouncementCount())
	require.Equal(t, 0, network.QueryCount())
}

func TestMdnsEngineEnableLoopbackInterface(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	require.Nil(t, engine.DisableAllInterfaces())
	require.Nil(t, engine.EnableInterface(net.IPv4(127, 0, 0, 1)))

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)
	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)

	require.Nil(t, engine.Register(newTestRecord(t, "pinned", 7002)))

	event := waitEventKind(t, sub, sysmdns.EventResolved)
	require.Contains(t, sysmdns.FormatAddrs(event.Service.Addrs), "127.0.0.1")
}

func TestMdnsEngineEnableUnknownInterface(t *testing.T) {
	engine := newTestEngine(t, newTestNetwork(sysmdns.DefaultRecordTTL), sysmdns.DefaultEngineParams())

	err := engine.EnableInterface(net.ParseIP("192.0.2.254"))
	require.True(t, errors.Is(err, status.StatusNoData))
}

func TestMdnsEngineShutdown(t *testing.T) {
	transport := newTestTransport(newTestNetwork(sysmdns.DefaultRecordTTL))

	engine, err := sysmdns.NewMdnsEngine(transport, sysmdns.DefaultEngineParams())
	require.Nil(t, err)

	sub, err := engine.Browse(testServiceType)
	require.Nil(t, err)

	require.Nil(t, engine.Shutdown())
	require.Nil(t, engine.Shutdown())
	require.True(t, transport.isClosed())

	require.Equal(t, sysmdns.EventSearchStarted, waitEvent(t, sub).Kind)
	require.Equal(t, sysmdns.EventSearchStopped, waitEvent(t, sub).Kind)
	require.True(t, sub.Closed())

	err = engine.Register(newTestRecord(t, "late", 8000))
	require.True(t, errors.Is(err, status.StatusClosed))

	_, err = engine.Browse(testServiceType)
	require.True(t, errors.Is(err, status.StatusClosed))

	_, err = engine.Unregister("late._testsvc._tcp.local.")
	require.True(t, errors.Is(err, status.StatusClosed))
}

func TestMdnsEngineShutdownSendsGoodbye(t *testing.T) {
	network := newTestNetwork(sysmdns.DefaultRecordTTL)

	advertiser, err := sysmdns.NewMdnsEngine(newTestTransport(network), sysmdns.DefaultEngineParams())
	require.Nil(t, err)

	browser := newTestEngine(t, network, sysmdns.DefaultEngineParams())

	sub, err := browser.Browse(testServiceType)
	require.Nil(t, err)

	require.Nil(t, advertiser.Register(newTestRecord(t, "bye", 8001)))
	require.Equal(t, sysmdns.EventResolved, waitEventKind(t, sub, sysmdns.EventResolved).Kind)

	require.Nil(t, advertiser.Shutdown())
	require.Equal(t, sysmdns.EventRemoved, waitEventKind(t, sub, sysmdns.EventRemoved).Kind)
	require.Equal(t, 0, network.AnnouncementCount())
}

func TestMdnsEngineOpenFailure(t *testing.T) {
	transport := newTestTransport(newTestNetwork(sysmdns.DefaultRecordTTL))
	transport.openErr = errTestOpen

	engine, err := sysmdns.NewMdnsEngine(transport, sysmdns.DefaultEngineParams())
	require.True(t, errors.Is(err, status.StatusEngineCreate))
	require.Nil(t, engine)
}
