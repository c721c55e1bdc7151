package sysmdns

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/status"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

// EngineParams represents various options for the mDNS engine.
type EngineParams struct {
	// SweepInterval is how often the expired remote records are removed.
	SweepInterval time.Duration

	// RefreshInterval is how often the network queries are restarted.
	//
	// Remarks:
	//  - The transport reports each instance once per query, restarting the query
	//    refreshes the TTL of the instances which are still alive.
	//  - Remote instances which aren't reported for two intervals are removed.
	RefreshInterval time.Duration

	// CommandQueueSize is the capacity of the engine command queue.
	CommandQueueSize int
}

// DefaultEngineParams returns the default engine parameters.
func DefaultEngineParams() EngineParams {
	return EngineParams{
		SweepInterval:    defaultSweepInterval,
		RefreshInterval:  defaultRefreshInterval,
		CommandQueueSize: defaultCommandQueueSize,
	}
}

// MdnsEngine multiplexes service registrations and browsing subscriptions over
// a single transport.
//
// Remarks:
//   - All protocol state is owned by the engine goroutine, callers communicate with it
//     through the bounded command queue.
//   - Local registrations are delivered to local subscriptions directly, so the process
//     always discovers its own services regardless of multicast loopback.
type MdnsEngine struct {
	transport Transport
	params    EngineParams
	ctx       context.Context
	cancel    context.CancelFunc
	cmdCh     chan engineCommand
	entryCh   chan engineEntry
	doneCh    chan struct{}

	mu        sync.Mutex
	closed    bool
	selection InterfaceSelection
	reserved  map[string]struct{}

	// Owned by the engine goroutine.
	services map[string]*localService
	browsers map[uint64]*browser
}

// NewMdnsEngine opens the transport and starts the engine goroutine.
func NewMdnsEngine(transport Transport, params EngineParams) (*MdnsEngine, error) {
	defaults := DefaultEngineParams()

	if params.SweepInterval <= 0 {
		params.SweepInterval = defaults.SweepInterval
	}
	if params.RefreshInterval <= 0 {
		params.RefreshInterval = defaults.RefreshInterval
	}
	if params.CommandQueueSize <= 0 {
		params.CommandQueueSize = defaults.CommandQueueSize
	}

	if err := transport.Open(); err != nil {
		return nil, fmt.Errorf("%w: %w", status.StatusEngineCreate, err)
	}

	ctx, cancel := context.WithCancel(context.Background())

	e := &MdnsEngine{
		transport: transport,
		params:    params,
		ctx:       ctx,
		cancel:    cancel,
		cmdCh:     make(chan engineCommand, params.CommandQueueSize),
		entryCh:   make(chan engineEntry, params.CommandQueueSize),
		doneCh:    make(chan struct{}),
		selection: InterfaceSelection{All: true},
		reserved:  make(map[string]struct{}),
		services:  make(map[string]*localService),
		browsers:  make(map[uint64]*browser),
	}

	go e.run()

	return e, nil
}

// Register starts advertising the service.
func (e *MdnsEngine) Register(record *ServiceRecord) error {
	if record == nil {
		return fmt.Errorf("mdns-engine: %w: nil record", status.StatusInvalidArg)
	}

	key := nameKey(record.Fullname())

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}

	if _, ok := e.reserved[key]; ok {
		e.mu.Unlock()

		return fmt.Errorf("mdns-engine: %w: service=%q", status.StatusAlreadyExist,
			record.Fullname())
	}

	e.reserved[key] = struct{}{}
	selection := e.selection

	e.mu.Unlock()

	replyCh := make(chan error, 1)

	err := e.call(&registerCommand{
		record:    record.Clone(),
		selection: selection,
		replyCh:   replyCh,
	}, replyCh)
	if err != nil {
		e.mu.Lock()
		delete(e.reserved, key)
		e.mu.Unlock()

		return err
	}

	return nil
}

// Unregister stops advertising the service.
func (e *MdnsEngine) Unregister(fullname string) (<-chan UnregisterStatus, error) {
	key := nameKey(fullname)

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil, fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}

	if _, ok := e.reserved[key]; !ok {
		e.mu.Unlock()

		return nil, fmt.Errorf("mdns-engine: %w: service=%q", status.StatusNoData, fullname)
	}

	delete(e.reserved, key)

	e.mu.Unlock()

	statusCh := make(chan UnregisterStatus, 1)

	if err := e.send(&unregisterCommand{key: key, statusCh: statusCh}); err != nil {
		return nil, err
	}

	return statusCh, nil
}

// Browse starts browsing for the service type.
func (e *MdnsEngine) Browse(serviceType string) (*Subscription, error) {
	st, err := ParseServiceType(serviceType)
	if err != nil {
		return nil, fmt.Errorf("mdns-engine: failed to browse: %w", err)
	}

	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil, fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}

	selection := e.selection

	e.mu.Unlock()

	sub := newSubscription(st)
	replyCh := make(chan error, 1)

	err = e.call(&browseCommand{
		sub:       sub,
		selection: selection,
		replyCh:   replyCh,
	}, replyCh)
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// StopBrowse cancels the subscription.
func (e *MdnsEngine) StopBrowse(sub *Subscription) error {
	if sub == nil {
		return fmt.Errorf("mdns-engine: %w: nil subscription", status.StatusInvalidArg)
	}

	replyCh := make(chan error, 1)

	return e.call(&stopBrowseCommand{id: sub.ID(), replyCh: replyCh}, replyCh)
}

// EnableInterface enables the interface which owns the IP address.
//
// Remarks:
//   - The IP address family restricts the engine traffic, enabling interfaces
//     of both families allows any traffic.
func (e *MdnsEngine) EnableInterface(ip net.IP) error {
	iface, err := sysnet.InterfaceByIP(ip)
	if err != nil {
		return fmt.Errorf("mdns-engine: failed to enable interface: ip=%s: %w", ip, err)
	}

	family := FamilyIPv6
	if ip.To4() != nil {
		family = FamilyIPv4
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}

	if e.selection.All || len(e.selection.Ifaces) == 0 {
		e.selection = InterfaceSelection{Family: family}
	} else if e.selection.Family != family {
		e.selection.Family = FamilyAny
	}

	for _, enabled := range e.selection.Ifaces {
		if enabled.Index == iface.Index {
			return nil
		}
	}

	e.selection.Ifaces = append(e.selection.Ifaces, iface)

	core.LogInf.Printf("mdns-engine: interface enabled: iface=%s ip=%s\n", iface.Name, ip)

	return nil
}

// DisableAllInterfaces disables all interfaces.
//
// Remarks:
//   - Without enabled interfaces the engine serves local registrations and
//     subscriptions only.
func (e *MdnsEngine) DisableAllInterfaces() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}

	e.selection = InterfaceSelection{}

	return nil
}

// Shutdown stops the engine and waits for the engine goroutine to finish.
//
// Remarks:
//   - Can be called multiple times.
func (e *MdnsEngine) Shutdown() error {
	e.mu.Lock()

	if e.closed {
		e.mu.Unlock()

		return nil
	}

	e.closed = true

	e.mu.Unlock()

	e.cancel()
	<-e.doneCh

	return e.transport.Close()
}

func (e *MdnsEngine) send(cmd engineCommand) error {
	select {
	case e.cmdCh <- cmd:
		return nil

	case <-e.ctx.Done():
		return fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}
}

func (e *MdnsEngine) call(cmd engineCommand, replyCh <-chan error) error {
	if err := e.send(cmd); err != nil {
		return err
	}

	select {
	case err := <-replyCh:
		return err

	case <-e.doneCh:
		return fmt.Errorf("mdns-engine: %w", status.StatusClosed)
	}
}

func (e *MdnsEngine) run() {
	defer close(e.doneCh)

	sweepTicker := time.NewTicker(e.params.SweepInterval)
	defer sweepTicker.Stop()

	refreshTicker := time.NewTicker(e.params.RefreshInterval)
	defer refreshTicker.Stop()

	for {
		select {
		case cmd := <-e.cmdCh:
			e.handleCommand(cmd)

		case entry := <-e.entryCh:
			e.handleEntry(entry, time.Now())

		case now := <-sweepTicker.C:
			e.sweep(now)

		case <-refreshTicker.C:
			e.refresh()

		case <-e.ctx.Done():
			e.teardown()

			return
		}
	}
}

func (e *MdnsEngine) handleCommand(cmd engineCommand) {
	switch c := cmd.(type) {
	case *registerCommand:
		c.replyCh <- e.handleRegister(c)

	case *unregisterCommand:
		c.statusCh <- e.handleUnregister(c.key)

	case *browseCommand:
		c.replyCh <- e.handleBrowse(c)

	case *stopBrowseCommand:
		c.replyCh <- e.handleStopBrowse(c.id)
	}
}

func (e *MdnsEngine) handleRegister(cmd *registerCommand) error {
	record := cmd.record
	key := nameKey(record.Fullname())

	service := &localService{record: record}

	if cmd.selection.Empty() {
		core.LogWrn.Printf("mdns-engine: no interfaces enabled, service is visible"+
			" to the local subscriptions only: %s\n", record)
	} else {
		announcement, err := e.transport.Announce(record, cmd.selection)
		if err != nil {
			return fmt.Errorf("mdns-engine: failed to register service: %w", err)
		}

		service.announcement = announcement
	}

	if len(record.Addrs) == 0 {
		addrs, err := sysnet.InterfaceAddrs(cmd.selection.Ifaces)
		if err != nil {
			core.LogWrn.Printf("mdns-engine: failed to read local addresses: %v\n", err)
		}

		record.Addrs = filterFamily(addrs, cmd.selection.Family)
	}

	if len(record.Addrs) == 0 {
		record.Addrs = []net.IP{loopbackAddr(cmd.selection.Family)}
	}

	e.services[key] = service

	core.LogInf.Printf("mdns-engine: service registered: %s\n", record)

	for _, b := range e.browsers {
		if b.sub.ServiceType().Equal(record.Type) {
			b.resolve(key, record, time.Time{})
		}
	}

	return nil
}

func (e *MdnsEngine) handleUnregister(key string) UnregisterStatus {
	service, ok := e.services[key]
	if !ok {
		return UnregisterNotFound
	}

	delete(e.services, key)

	if service.announcement != nil {
		service.announcement.Shutdown()
	}

	core.LogInf.Printf("mdns-engine: service unregistered: %s\n", service.record)

	for _, b := range e.browsers {
		b.remove(key)
	}

	return UnregisterOK
}

func (e *MdnsEngine) handleBrowse(cmd *browseCommand) error {
	b := &browser{
		sub:       cmd.sub,
		selection: cmd.selection,
		known:     make(map[string]*knownService),
	}

	if !cmd.selection.Empty() {
		if err := e.startQuery(b); err != nil {
			return err
		}
	}

	e.browsers[b.sub.ID()] = b

	b.sub.push(Event{Kind: EventSearchStarted})

	for key, service := range e.services {
		if b.sub.ServiceType().Equal(service.record.Type) {
			b.resolve(key, service.record, time.Time{})
		}
	}

	core.LogInf.Printf("mdns-engine: browsing started: id=%d type=%s\n",
		b.sub.ID(), b.sub.ServiceType())

	return nil
}

func (e *MdnsEngine) handleStopBrowse(id uint64) error {
	b, ok := e.browsers[id]
	if !ok {
		return fmt.Errorf("mdns-engine: %w: subscription=%d", status.StatusNoData, id)
	}

	delete(e.browsers, id)

	b.stop()

	core.LogInf.Printf("mdns-engine: browsing stopped: id=%d type=%s\n",
		id, b.sub.ServiceType())

	return nil
}

func (e *MdnsEngine) handleEntry(entry engineEntry, now time.Time) {
	b, ok := e.browsers[entry.id]
	if !ok {
		return
	}

	record := entry.record
	key := nameKey(record.Fullname())

	if _, ok := e.services[key]; ok {
		return
	}

	// Goodbye packets are dropped by zeroconf, only the loopback transport reports them.
	if record.TTL == 0 {
		b.remove(key)

		return
	}

	if len(record.Addrs) == 0 {
		return
	}

	b.resolve(key, record, now.Add(e.recordLifetime(record)))
}

// Every refresh re-reports the live instances, so an instance missing from two
// consecutive refreshes is gone even if its TTL is much longer.
func (e *MdnsEngine) recordLifetime(record *ServiceRecord) time.Duration {
	lifetime := time.Duration(record.TTL) * time.Second

	if limit := 2 * e.params.RefreshInterval; limit < lifetime {
		return limit
	}

	return lifetime
}

func (e *MdnsEngine) sweep(now time.Time) {
	for _, b := range e.browsers {
		for key, known := range b.known {
			if known.local() || now.Before(known.expireAt) {
				continue
			}

			core.LogInf.Printf("mdns-engine: record expired: %s\n", known.record)

			b.remove(key)
		}
	}
}

func (e *MdnsEngine) refresh() {
	for _, b := range e.browsers {
		if b.selection.Empty() {
			continue
		}

		if b.cancelQuery != nil {
			b.cancelQuery()
			b.cancelQuery = nil
		}

		if err := e.startQuery(b); err != nil {
			core.LogErr.Printf("mdns-engine: failed to refresh query: id=%d type=%s: %v\n",
				b.sub.ID(), b.sub.ServiceType(), err)

			b.sub.push(Event{Kind: EventError, Err: err})
		}
	}
}

func (e *MdnsEngine) startQuery(b *browser) error {
	ctx, cancel := context.WithCancel(e.ctx)

	id := b.sub.ID()

	err := e.transport.Query(ctx, b.sub.ServiceType(), b.selection, func(record *ServiceRecord) {
		select {
		case e.entryCh <- engineEntry{id: id, record: record}:
		case <-ctx.Done():
		}
	})
	if err != nil {
		cancel()

		return fmt.Errorf("mdns-engine: failed to start query: type=%s: %w",
			b.sub.ServiceType(), err)
	}

	b.cancelQuery = cancel

	return nil
}

func (e *MdnsEngine) teardown() {
	for key, service := range e.services {
		if service.announcement != nil {
			service.announcement.Shutdown()
		}

		delete(e.services, key)
	}

	for id, b := range e.browsers {
		b.stop()

		delete(e.browsers, id)
	}

	core.LogInf.Println("mdns-engine: stopped")
}

func loopbackAddr(family IPFamily) net.IP {
	if family == FamilyIPv6 {
		return net.IPv6loopback
	}

	return net.IPv4(127, 0, 0, 1)
}

type engineCommand interface{}

type registerCommand struct {
	record    *ServiceRecord
	selection InterfaceSelection
	replyCh   chan<- error
}

type unregisterCommand struct {
	key      string
	statusCh chan<- UnregisterStatus
}

type browseCommand struct {
	sub       *Subscription
	selection InterfaceSelection
	replyCh   chan<- error
}

type stopBrowseCommand struct {
	id      uint64
	replyCh chan<- error
}

type engineEntry struct {
	id     uint64
	record *ServiceRecord
}

type localService struct {
	record       *ServiceRecord
	announcement Announcement
}

type knownService struct {
	record *ServiceRecord

	// Zero for the local services, they never expire.
	expireAt time.Time
}

func (s *knownService) local() bool {
	return s.expireAt.IsZero()
}

type browser struct {
	sub         *Subscription
	selection   InterfaceSelection
	cancelQuery context.CancelFunc
	known       map[string]*knownService
}

func (b *browser) resolve(key string, record *ServiceRecord, expireAt time.Time) {
	known, ok := b.known[key]
	if ok && known.record.sameAs(record) {
		if !known.local() {
			known.expireAt = expireAt
		}

		return
	}

	b.known[key] = &knownService{
		record:   record,
		expireAt: expireAt,
	}

	b.sub.push(Event{
		Kind:     EventResolved,
		Fullname: record.Fullname(),
		Service:  record.Clone(),
	})
}

func (b *browser) remove(key string) {
	known, ok := b.known[key]
	if !ok {
		return
	}

	delete(b.known, key)

	b.sub.push(Event{
		Kind:     EventRemoved,
		Fullname: known.record.Fullname(),
	})
}

func (b *browser) stop() {
	if b.cancelQuery != nil {
		b.cancelQuery()
		b.cancelQuery = nil
	}

	b.sub.push(Event{Kind: EventSearchStopped})
	b.sub.close()
}
