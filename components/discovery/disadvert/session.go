package disadvert

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

// EngineProvider provides handles to the shared mDNS engine.
type EngineProvider interface {
	// GetOrCreate returns a handle to the shared engine.
	GetOrCreate() (*sysmdns.Handle, error)
}

const (
	minPort = 1
	maxPort = 65535
)

// Session advertises a single service on the local network.
//
// Remarks:
//   - Safe to use from multiple goroutines.
type Session struct {
	provider EngineProvider
	reporter discovery.ErrorReporter
	hostname string

	mu       sync.Mutex
	handle   *sysmdns.Handle
	fullname string
}

// NewSession is an initialization of Session.
//
// Parameters:
//   - provider to obtain the shared engine handle.
//   - reporter to report errors, advertising failures are never fatal.
func NewSession(provider EngineProvider, reporter discovery.ErrorReporter) *Session {
	return &Session{
		provider: provider,
		reporter: reporter,
		hostname: sysnet.LocalHostname(),
	}
}

// Advertise starts advertising the service instance.
//
// Parameters:
//   - instance - service instance name, e.g. "Bonsai GrowLab".
//   - serviceType - service type, e.g. "_http._tcp.local.".
//   - port - service port, clamped to [1, 65535].
//   - metadata - TXT record, only text values are advertised.
//
// Remarks:
//   - Running advertisement is unregistered first.
//   - All errors are also reported to the error reporter.
func (s *Session) Advertise(
	instance string,
	serviceType string,
	port int,
	metadata map[string]any,
) error {
	s.mu.Lock()

	s.unregister()
	err := s.advertise(instance, serviceType, port, metadata)

	s.mu.Unlock()

	if err != nil {
		s.reporter.ReportError(err)
	}

	return err
}

// Unregister stops advertising the service and releases the engine handle.
//
// Remarks:
//   - Can be called multiple times.
func (s *Session) Unregister() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.unregister()
}

// Close stops advertising the service.
func (s *Session) Close() error {
	s.Unregister()

	return nil
}

// IsAdvertising reports whether the service is advertised.
func (s *Session) IsAdvertising() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.handle != nil
}

// RegisteredName returns the fully qualified name of the advertised service,
// empty if nothing is advertised.
func (s *Session) RegisteredName() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.fullname
}

func (s *Session) advertise(
	instance string,
	serviceType string,
	port int,
	metadata map[string]any,
) error {
	handle, err := s.provider.GetOrCreate()
	if err != nil {
		return fmt.Errorf("advertise-session: failed to get engine: %w", err)
	}

	record, err := sysmdns.NewServiceRecord(instance, serviceType, s.hostname,
		clampPort(port), buildMetadata(metadata))
	if err != nil {
		_ = handle.Close()

		return fmt.Errorf("advertise-session: failed to build record: %w", err)
	}

	if err := handle.Register(record); err != nil {
		_ = handle.Close()

		return fmt.Errorf("advertise-session: failed to register: %w", err)
	}

	s.handle = handle
	s.fullname = record.Fullname()

	core.LogInf.Printf("advertise-session: registered: %s\n", record)

	return nil
}

func (s *Session) unregister() {
	if s.handle == nil {
		return
	}

	if _, err := s.handle.Unregister(s.fullname); err == nil {
		core.LogInf.Printf("advertise-session: unregistered: name=%q\n", s.fullname)
	}

	_ = s.handle.Close()

	s.handle = nil
	s.fullname = ""
}

func clampPort(port int) uint16 {
	if port < minPort {
		return minPort
	}
	if port > maxPort {
		return maxPort
	}

	return uint16(port)
}

// buildMetadata keeps the text values and orders the entries by key.
//
// Remarks:
//   - Keys with '=' can't be encoded in a TXT record and are dropped.
func buildMetadata(metadata map[string]any) sysmdns.Metadata {
	keys := make([]string, 0, len(metadata))
	for key := range metadata {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	var ret sysmdns.Metadata

	for _, key := range keys {
		value, ok := textValue(metadata[key])
		if !ok || key == "" || strings.Contains(key, "=") {
			continue
		}

		ret = append(ret, sysmdns.TxtEntry{Key: key, Value: value})
	}

	return ret
}

func textValue(value any) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case []byte:
		if !utf8.Valid(v) {
			return "", false
		}

		return string(v), true
	case fmt.Stringer:
		return v.String(), true
	default:
		return "", false
	}
}
