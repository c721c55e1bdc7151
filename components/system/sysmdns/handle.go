package sysmdns

import (
	"fmt"
	"net"
	"sync/atomic"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// Handle is a shared reference to the engine.
//
// Remarks:
//   - The engine is shut down when the last handle is closed.
//   - A single handle shouldn't be closed concurrently with its other methods.
type Handle struct {
	engine   Engine
	refs     *atomic.Int64
	released atomic.Bool
}

// NewHandle returns the first handle to the engine.
func NewHandle(engine Engine) *Handle {
	refs := &atomic.Int64{}
	refs.Store(1)

	return &Handle{
		engine: engine,
		refs:   refs,
	}
}

// Clone returns a new handle to the same engine.
func (h *Handle) Clone() (*Handle, error) {
	if h.released.Load() {
		return nil, fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	h.refs.Add(1)

	return &Handle{
		engine: h.engine,
		refs:   h.refs,
	}, nil
}

// RefCount returns the number of live handles to the engine.
func (h *Handle) RefCount() int64 {
	return h.refs.Load()
}

// Close releases the handle.
//
// Remarks:
//   - Can be called multiple times.
func (h *Handle) Close() error {
	if !h.released.CompareAndSwap(false, true) {
		return nil
	}

	if h.refs.Add(-1) > 0 {
		return nil
	}

	return h.engine.Shutdown()
}

// Register starts advertising the service.
func (h *Handle) Register(record *ServiceRecord) error {
	if h.released.Load() {
		return fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.Register(record)
}

// Unregister stops advertising the service.
func (h *Handle) Unregister(fullname string) (<-chan UnregisterStatus, error) {
	if h.released.Load() {
		return nil, fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.Unregister(fullname)
}

// Browse starts browsing for the service type.
func (h *Handle) Browse(serviceType string) (*Subscription, error) {
	if h.released.Load() {
		return nil, fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.Browse(serviceType)
}

// StopBrowse cancels the subscription.
func (h *Handle) StopBrowse(sub *Subscription) error {
	if h.released.Load() {
		return fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.StopBrowse(sub)
}

// EnableInterface enables the interface which owns the IP address.
func (h *Handle) EnableInterface(ip net.IP) error {
	if h.released.Load() {
		return fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.EnableInterface(ip)
}

// DisableAllInterfaces disables all interfaces.
func (h *Handle) DisableAllInterfaces() error {
	if h.released.Load() {
		return fmt.Errorf("mdns-handle: %w", status.StatusClosed)
	}

	return h.engine.DisableAllInterfaces()
}
