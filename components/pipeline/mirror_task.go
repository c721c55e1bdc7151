package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/discovery/disstore"
)

// ServiceFetcher fetches the services known by the remote hub.
type ServiceFetcher interface {
	Services() ([]disstore.Item, error)
}

// MirrorTask replicates the services of the remote hub to the local handler.
//
// Remarks:
//   - Handler is notified only about new, changed, and disappeared services.
//   - Isn't thread-safe, should be run from a single goroutine.
type MirrorTask struct {
	fetcher ServiceFetcher
	handler discovery.Handler
	known   map[string]discovery.Service
}

// NewMirrorTask is an initialization of MirrorTask.
//
// Parameters:
//   - fetcher to fetch the services of the remote hub.
//   - handler to notify about the remote services.
func NewMirrorTask(fetcher ServiceFetcher, handler discovery.Handler) *MirrorTask {
	return &MirrorTask{
		fetcher: fetcher,
		handler: handler,
		known:   make(map[string]discovery.Service),
	}
}

// Run fetches the remote services and notifies the handler about the changes.
func (t *MirrorTask) Run() error {
	items, err := t.fetcher.Services()
	if err != nil {
		return fmt.Errorf("mirror-task: failed to fetch services: %w", err)
	}

	current := make(map[string]discovery.Service, len(items))

	for _, item := range items {
		current[item.Name] = item.Service

		if prev, ok := t.known[item.Name]; ok && sameService(prev, item.Service) {
			continue
		}

		t.handler.HandleDiscovered(item.Service)
	}

	for name := range t.known {
		if _, ok := current[name]; !ok {
			t.handler.HandleRemoved(name)
		}
	}

	t.known = current

	return nil
}

func sameService(a, b discovery.Service) bool {
	return a.Host == b.Host &&
		a.Port == b.Port &&
		slices.Equal(a.Addresses, b.Addresses) &&
		maps.Equal(a.Metadata, b.Metadata)
}
