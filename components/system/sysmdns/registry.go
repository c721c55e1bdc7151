package sysmdns

import (
	"fmt"
	"sync"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/status"
)

// Registry lazily creates a single engine shared by all sessions in the process.
//
// Remarks:
//   - The registry holds its own handle, so the shared engine outlives the sessions
//     and is shut down only when the registry is closed.
//   - Safe to use from multiple goroutines.
type Registry struct {
	factory EngineFactory

	mu     sync.Mutex
	handle *Handle
	closed bool
}

// NewRegistry is an initialization of Registry.
//
// Parameters:
//   - factory to create the shared engine on the first request.
func NewRegistry(factory EngineFactory) *Registry {
	return &Registry{factory: factory}
}

// GetOrCreate returns a handle to the shared engine, creating the engine if needed.
//
// Remarks:
//   - If the engine can't be created, the registry stays empty and the next call
//     tries again.
//   - The caller should close the returned handle.
func (r *Registry) GetOrCreate() (*Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("mdns-registry: %w", status.StatusClosed)
	}

	if r.handle == nil {
		engine, err := r.create()
		if err != nil {
			return nil, err
		}

		r.handle = NewHandle(engine)

		core.LogInf.Println("mdns-registry: shared engine created")
	}

	return r.handle.Clone()
}

// CreatePrivate creates a new engine which isn't shared with other sessions.
//
// Remarks:
//   - Used by sessions which change the engine interface selection, the returned
//     handle is the only reference to the engine.
//   - Private engines are created even after the registry is closed.
func (r *Registry) CreatePrivate() (*Handle, error) {
	engine, err := r.create()
	if err != nil {
		return nil, err
	}

	return NewHandle(engine), nil
}

// Close releases the registry reference to the shared engine.
//
// Remarks:
//   - The engine is shut down once all handles returned by GetOrCreate are closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}

	r.closed = true

	if r.handle == nil {
		return nil
	}

	handle := r.handle
	r.handle = nil

	return handle.Close()
}

func (r *Registry) create() (engine Engine, err error) {
	defer func() {
		if p := recover(); p != nil {
			engine = nil
			err = fmt.Errorf("mdns-registry: %w: factory panicked: %v",
				status.StatusEngineCreate, p)
		}
	}()

	engine, err = r.factory()
	if err != nil {
		return nil, fmt.Errorf("mdns-registry: failed to create engine: %w", err)
	}
	if engine == nil {
		return nil, fmt.Errorf("mdns-registry: %w: factory returned nil engine",
			status.StatusEngineCreate)
	}

	return engine, nil
}
