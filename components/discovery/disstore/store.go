package disstore

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/status"
	"github.com/open-control-systems/mdns-hub/components/storage/stcore"
)

// Item is a discovered service with its discovery timestamps.
type Item struct {
	discovery.Service

	// FirstSeen is the UNIX time the service was discovered for the first time.
	FirstSeen int64 `json:"first_seen"`

	// LastSeen is the UNIX time the service record was last received.
	LastSeen int64 `json:"last_seen"`
}

// Store persists discovered services.
//
// Remarks:
//   - Services are restored from the database on initialization, so the services
//     discovered by the previous run are available until they are removed, or until
//     PruneRestored is called and they weren't discovered again.
//   - Safe to use from multiple goroutines.
type Store struct {
	reporter discovery.ErrorReporter
	nowFn    func() time.Time

	mu       sync.Mutex
	db       stcore.DB
	items    map[string]Item
	restored map[string]struct{}
}

// NewStore is an initialization of Store.
//
// Parameters:
//   - db to persist discovered services.
//   - reporter to report database errors.
func NewStore(db stcore.DB, reporter discovery.ErrorReporter) *Store {
	s := &Store{
		reporter: reporter,
		nowFn:    time.Now,
		db:       db,
		items:    make(map[string]Item),
		restored: make(map[string]struct{}),
	}

	if err := s.restore(); err != nil {
		core.LogErr.Printf("discovery-store: failed to restore services: %v\n", err)
	}

	return s
}

// HandleDiscovered stores the discovered service.
func (s *Store) HandleDiscovered(service discovery.Service) {
	if err := s.add(service); err != nil {
		s.reporter.ReportError(err)
	}
}

// HandleRemoved removes the service from the store.
func (s *Store) HandleRemoved(name string) {
	if err := s.remove(name); err != nil {
		s.reporter.ReportError(err)
	}
}

// PruneRestored removes the restored services which weren't discovered since
// the store was initialized.
//
// Remarks:
//   - Should be called once the browsing had enough time to rediscover the services.
func (s *Store) PruneRestored() {
	if err := s.pruneRestored(); err != nil {
		s.reporter.ReportError(err)
	}
}

// Get returns the stored service.
//
// Remarks:
//   - Returns status.StatusNoData if the service isn't stored.
func (s *Store) Get(name string) (Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.items[hashName(name)]
	if !ok {
		return Item{}, status.StatusNoData
	}

	return item, nil
}

// List returns all stored services ordered by name.
func (s *Store) List() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]Item, 0, len(s.items))
	for _, item := range s.items {
		items = append(items, item)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Name < items[j].Name
	})

	return items
}

// Len returns the number of stored services.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items)
}

func (s *Store) add(service discovery.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashName(service.Name)
	now := s.nowFn().Unix()

	item, ok := s.items[key]
	if !ok {
		item.FirstSeen = now
	}

	item.Service = service
	item.LastSeen = now

	buf, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("discovery-store: failed to encode service: name=%q: %w",
			service.Name, err)
	}

	if err := s.db.Write(key, stcore.Blob{Data: buf}); err != nil {
		return fmt.Errorf("discovery-store: failed to persist service: name=%q: %w",
			service.Name, err)
	}

	s.items[key] = item
	delete(s.restored, key)

	if !ok {
		core.LogInf.Printf("discovery-store: service added: name=%q\n", service.Name)
	}

	return nil
}

func (s *Store) remove(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hashName(name)

	if _, ok := s.items[key]; !ok {
		return nil
	}

	if err := s.db.Remove(key); err != nil {
		return fmt.Errorf("discovery-store: failed to remove service: name=%q: %w", name, err)
	}

	delete(s.items, key)
	delete(s.restored, key)

	core.LogInf.Printf("discovery-store: service removed: name=%q\n", name)

	return nil
}

func (s *Store) pruneRestored() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key := range s.restored {
		item := s.items[key]

		if err := s.db.Remove(key); err != nil {
			return fmt.Errorf("discovery-store: failed to prune service: name=%q: %w",
				item.Name, err)
		}

		delete(s.items, key)
		delete(s.restored, key)

		core.LogInf.Printf("discovery-store: service pruned: name=%q last_seen=%d\n",
			item.Name, item.LastSeen)
	}

	return nil
}

func (s *Store) restore() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.ForEach(func(key string, blob stcore.Blob) error {
		var item Item
		if err := json.Unmarshal(blob.Data, &item); err != nil {
			return fmt.Errorf("failed to decode service: key=%s: %w", key, err)
		}

		s.items[key] = item
		s.restored[key] = struct{}{}

		core.LogInf.Printf("discovery-store: service restored: name=%q last_seen=%d\n",
			item.Name, item.LastSeen)

		return nil
	})
}

// DNS names are case-insensitive.
func hashName(name string) string {
	sum := sha256.Sum256([]byte(strings.ToLower(name)))

	return hex.EncodeToString(sum[:])
}
