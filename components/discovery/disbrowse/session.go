package disbrowse

import (
	"fmt"
	"net"
	"sync"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/discovery"
	"github.com/open-control-systems/mdns-hub/components/status"
	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
)

// EngineProvider provides handles to the mDNS engines.
type EngineProvider interface {
	// GetOrCreate returns a handle to the shared engine.
	GetOrCreate() (*sysmdns.Handle, error)

	// CreatePrivate creates an engine which isn't shared with other sessions.
	CreatePrivate() (*sysmdns.Handle, error)
}

// Session browses the local network for a single service type.
//
// Remarks:
//   - Discovered services are delivered from Poll(), it should be called regularly.
//   - Safe to use from multiple goroutines.
type Session struct {
	provider EngineProvider
	handler  discovery.Handler
	reporter discovery.ErrorReporter

	mu          sync.Mutex
	hint        string
	handle      *sysmdns.Handle
	sub         *sysmdns.Subscription
	serviceType string
}

// NewSession is an initialization of Session.
//
// Parameters:
//   - provider to obtain the engine handles.
//   - handler to notify about discovered and removed services.
//   - reporter to report errors, browsing failures are never fatal.
func NewSession(
	provider EngineProvider,
	handler discovery.Handler,
	reporter discovery.ErrorReporter,
) *Session {
	return &Session{
		provider: provider,
		handler:  handler,
		reporter: reporter,
	}
}

// SetInterfaceHint pins browsing to the interface which owns the IP address.
//
// Remarks:
//   - Empty hint clears the pin.
//   - The hint is applied on the next Start() call.
//   - Pinned sessions use a private engine, so changing the interface selection never
//     affects the other sessions.
func (s *Session) SetInterfaceHint(hint string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.hint = hint
}

// Start starts browsing for the service type, e.g. "_http._tcp.local.".
//
// Remarks:
//   - Running browsing is stopped first.
//   - All errors are also reported to the error reporter.
func (s *Session) Start(serviceType string) error {
	errs, err := s.start(serviceType)

	for _, e := range errs {
		s.reporter.ReportError(e)
	}

	return err
}

// Poll delivers all queued browsing events to the handler.
//
// Remarks:
//   - Never blocks, can be called at any rate.
func (s *Session) Poll() {
	s.mu.Lock()
	sub := s.sub
	s.mu.Unlock()

	if sub == nil {
		return
	}

	for {
		event, ok := sub.TryRecv()
		if !ok {
			return
		}

		if !s.isCurrent(sub) {
			return
		}

		s.dispatch(sub, event)
	}
}

// Run delivers all queued browsing events to the handler.
//
// Remarks:
//   - Allows the session to be driven by syssched.AsyncTaskRunner.
func (s *Session) Run() error {
	s.Poll()

	return nil
}

// Stop stops browsing and releases the engine handle.
//
// Remarks:
//   - Can be called multiple times.
func (s *Session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()
}

// Close stops browsing.
func (s *Session) Close() error {
	s.Stop()

	return nil
}

// IsBrowsing reports whether browsing is running.
func (s *Session) IsBrowsing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sub != nil
}

// ServiceType returns the service type browsed for, empty if browsing isn't running.
func (s *Session) ServiceType() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.serviceType
}

func (s *Session) start(serviceType string) ([]error, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stop()

	var (
		errs   []error
		handle *sysmdns.Handle
	)

	if s.hint != "" {
		ip := net.ParseIP(s.hint)
		if ip == nil {
			err := fmt.Errorf("browse-session: %w: invalid interface hint: %q",
				status.StatusInvalidArg, s.hint)

			return []error{err}, err
		}

		h, err := s.provider.CreatePrivate()
		if err != nil {
			err = fmt.Errorf("browse-session: failed to create engine: %w", err)

			return []error{err}, err
		}

		if err := h.DisableAllInterfaces(); err != nil {
			errs = append(errs, fmt.Errorf("browse-session: failed to disable interfaces: %w",
				err))
		}

		if err := h.EnableInterface(ip); err != nil {
			errs = append(errs, fmt.Errorf("browse-session: failed to pin interface: ip=%s: %w",
				ip, err))
		}

		handle = h
	} else {
		h, err := s.provider.GetOrCreate()
		if err != nil {
			err = fmt.Errorf("browse-session: failed to get engine: %w", err)

			return []error{err}, err
		}

		handle = h
	}

	sub, err := handle.Browse(serviceType)
	if err != nil {
		_ = handle.Close()

		err = fmt.Errorf("browse-session: failed to browse: type=%q: %w", serviceType, err)

		return append(errs, err), err
	}

	s.handle = handle
	s.sub = sub
	s.serviceType = serviceType

	core.LogInf.Printf("browse-session: started: type=%s hint=%q\n", serviceType, s.hint)

	return errs, nil
}

func (s *Session) stop() {
	if s.sub != nil {
		_ = s.handle.StopBrowse(s.sub)

		core.LogInf.Printf("browse-session: stopped: type=%s\n", s.serviceType)
	}

	if s.handle != nil {
		_ = s.handle.Close()
	}

	s.handle = nil
	s.sub = nil
	s.serviceType = ""
}

func (s *Session) isCurrent(sub *sysmdns.Subscription) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sub == sub
}

func (s *Session) dispatch(sub *sysmdns.Subscription, event sysmdns.Event) {
	switch event.Kind {
	case sysmdns.EventResolved:
		s.handler.HandleDiscovered(discovery.Service{
			Name:      event.Fullname,
			Host:      event.Service.Hostname,
			Addresses: sysmdns.FormatAddrs(event.Service.Addrs),
			Port:      int(event.Service.Port),
			Metadata:  event.Service.Metadata.Map(),
		})

	case sysmdns.EventRemoved:
		s.handler.HandleRemoved(event.Fullname)

	case sysmdns.EventError:
		s.reporter.ReportError(fmt.Errorf("browse-session: browsing failed: type=%s: %w",
			sub.ServiceType(), event.Err))
	}
}
