package sysmdns

import (
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/open-control-systems/mdns-hub/components/status"
)

type testEngine struct {
	shutdownCount atomic.Int32
}

func (*testEngine) Register(*ServiceRecord) error {
	return nil
}

func (*testEngine) Unregister(string) (<-chan UnregisterStatus, error) {
	statusCh := make(chan UnregisterStatus, 1)
	statusCh <- UnregisterOK

	return statusCh, nil
}

func (*testEngine) Browse(serviceType string) (*Subscription, error) {
	st, err := ParseServiceType(serviceType)
	if err != nil {
		return nil, err
	}

	return newSubscription(st), nil
}

func (*testEngine) StopBrowse(*Subscription) error {
	return nil
}

func (*testEngine) EnableInterface(net.IP) error {
	return nil
}

func (*testEngine) DisableAllInterfaces() error {
	return nil
}

func (e *testEngine) Shutdown() error {
	e.shutdownCount.Add(1)

	return nil
}

type testEngineFactory struct {
	mu      sync.Mutex
	engines []*testEngine
	err     error
	panic   bool
}

func (f *testEngineFactory) create() (Engine, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.panic {
		panic("socket exploded")
	}

	if f.err != nil {
		return nil, f.err
	}

	engine := &testEngine{}
	f.engines = append(f.engines, engine)

	return engine, nil
}

func (f *testEngineFactory) createCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return len(f.engines)
}

func TestHandleLastCloseShutsDownEngine(t *testing.T) {
	engine := &testEngine{}

	first := NewHandle(engine)

	second, err := first.Clone()
	require.Nil(t, err)
	require.Equal(t, int64(2), first.RefCount())

	require.Nil(t, first.Close())
	require.Nil(t, first.Close())
	require.Equal(t, int32(0), engine.shutdownCount.Load())
	require.Equal(t, int64(1), second.RefCount())

	require.Nil(t, second.Close())
	require.Equal(t, int32(1), engine.shutdownCount.Load())
}

func TestHandleClosed(t *testing.T) {
	handle := NewHandle(&testEngine{})
	require.Nil(t, handle.Close())

	_, err := handle.Clone()
	require.True(t, errors.Is(err, status.StatusClosed))

	require.True(t, errors.Is(handle.Register(&ServiceRecord{}), status.StatusClosed))

	_, err = handle.Unregister("foo._testsvc._tcp.local.")
	require.True(t, errors.Is(err, status.StatusClosed))

	_, err = handle.Browse("_testsvc._tcp.local.")
	require.True(t, errors.Is(err, status.StatusClosed))

	require.True(t, errors.Is(handle.StopBrowse(nil), status.StatusClosed))
	require.True(t, errors.Is(handle.EnableInterface(net.IPv4(127, 0, 0, 1)),
		status.StatusClosed))
	require.True(t, errors.Is(handle.DisableAllInterfaces(), status.StatusClosed))
}

func TestRegistrySharedEngine(t *testing.T) {
	factory := &testEngineFactory{}
	registry := NewRegistry(factory.create)

	first, err := registry.GetOrCreate()
	require.Nil(t, err)

	second, err := registry.GetOrCreate()
	require.Nil(t, err)

	require.Equal(t, 1, factory.createCount())
	require.Equal(t, int64(3), first.RefCount())

	require.Nil(t, first.Close())
	require.Nil(t, second.Close())

	engine := factory.engines[0]
	require.Equal(t, int32(0), engine.shutdownCount.Load())

	third, err := registry.GetOrCreate()
	require.Nil(t, err)
	require.Equal(t, 1, factory.createCount())

	require.Nil(t, registry.Close())
	require.Equal(t, int32(0), engine.shutdownCount.Load())

	require.Nil(t, third.Close())
	require.Equal(t, int32(1), engine.shutdownCount.Load())
}

func TestRegistryConcurrentGetOrCreate(t *testing.T) {
	factory := &testEngineFactory{}
	registry := NewRegistry(factory.create)

	var wg sync.WaitGroup

	handles := make([]*Handle, 16)

	for n := range handles {
		wg.Add(1)

		go func(n int) {
			defer wg.Done()

			handle, err := registry.GetOrCreate()
			require.Nil(t, err)

			handles[n] = handle
		}(n)
	}

	wg.Wait()

	require.Equal(t, 1, factory.createCount())

	for _, handle := range handles {
		require.Nil(t, handle.Close())
	}

	require.Nil(t, registry.Close())
	require.Equal(t, int32(1), factory.engines[0].shutdownCount.Load())
}

func TestRegistryFactoryFailure(t *testing.T) {
	factory := &testEngineFactory{err: errors.New("port 5353 in use")}
	registry := NewRegistry(factory.create)

	handle, err := registry.GetOrCreate()
	require.NotNil(t, err)
	require.Nil(t, handle)

	factory.mu.Lock()
	factory.err = nil
	factory.mu.Unlock()

	handle, err = registry.GetOrCreate()
	require.Nil(t, err)
	require.NotNil(t, handle)
	require.Equal(t, 1, factory.createCount())

	require.Nil(t, handle.Close())
	require.Nil(t, registry.Close())
}

func TestRegistryFactoryPanic(t *testing.T) {
	factory := &testEngineFactory{panic: true}
	registry := NewRegistry(factory.create)

	handle, err := registry.GetOrCreate()
	require.True(t, errors.Is(err, status.StatusEngineCreate))
	require.Nil(t, handle)

	factory.mu.Lock()
	factory.panic = false
	factory.mu.Unlock()

	handle, err = registry.GetOrCreate()
	require.Nil(t, err)
	require.Nil(t, handle.Close())
	require.Nil(t, registry.Close())
}

func TestRegistryClosed(t *testing.T) {
	factory := &testEngineFactory{}
	registry := NewRegistry(factory.create)

	require.Nil(t, registry.Close())
	require.Nil(t, registry.Close())

	handle, err := registry.GetOrCreate()
	require.True(t, errors.Is(err, status.StatusClosed))
	require.Nil(t, handle)
	require.Equal(t, 0, factory.createCount())
}
