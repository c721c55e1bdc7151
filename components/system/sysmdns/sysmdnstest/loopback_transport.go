// Package sysmdnstest provides an in-process mDNS network for engine tests.
package sysmdnstest

import (
	"context"
	"net"
	"sync"

	"github.com/open-control-systems/mdns-hub/components/system/sysmdns"
)

const queryQueueSize = 64

// LoopbackNetworkParams represents various options for the in-process network.
type LoopbackNetworkParams struct {
	// TTL is a time-to-live in seconds of the delivered records.
	TTL uint32

	// Addr is announced for the records without addresses.
	Addr net.IP
}

// LoopbackNetwork connects transports of multiple engines within the process,
// as if the engines were running on different hosts of the same LAN.
//
// Remarks:
//   - No sockets are used, engines on the loopback network work without the network.
type LoopbackNetwork struct {
	params LoopbackNetworkParams

	mu            sync.Mutex
	announcements map[*loopbackAnnouncement]*sysmdns.ServiceRecord
	queries       map[*loopbackQuery]struct{}
}

// NewLoopbackNetwork is an initialization of LoopbackNetwork.
func NewLoopbackNetwork(params LoopbackNetworkParams) *LoopbackNetwork {
	if params.TTL == 0 {
		params.TTL = sysmdns.DefaultRecordTTL
	}
	if params.Addr == nil {
		params.Addr = net.IPv4(127, 0, 0, 1)
	}

	return &LoopbackNetwork{
		params:        params,
		announcements: make(map[*loopbackAnnouncement]*sysmdns.ServiceRecord),
		queries:       make(map[*loopbackQuery]struct{}),
	}
}

// NewTransport returns a new transport attached to the network.
func (n *LoopbackNetwork) NewTransport() *LoopbackTransport {
	return &LoopbackTransport{network: n}
}

// NewEngineFactory returns a factory of engines attached to the network.
func (n *LoopbackNetwork) NewEngineFactory(params sysmdns.EngineParams) sysmdns.EngineFactory {
	return func() (sysmdns.Engine, error) {
		engine, err := sysmdns.NewMdnsEngine(n.NewTransport(), params)
		if err != nil {
			return nil, err
		}

		return engine, nil
	}
}

// AnnouncementCount returns the number of announced records.
func (n *LoopbackNetwork) AnnouncementCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.announcements)
}

// QueryCount returns the number of running queries.
func (n *LoopbackNetwork) QueryCount() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	return len(n.queries)
}

func (n *LoopbackNetwork) announce(record *sysmdns.ServiceRecord) *loopbackAnnouncement {
	n.mu.Lock()
	defer n.mu.Unlock()

	announcement := &loopbackAnnouncement{network: n}
	n.announcements[announcement] = record

	for query := range n.queries {
		query.deliver(record)
	}

	return announcement
}

func (n *LoopbackNetwork) withdraw(announcement *loopbackAnnouncement) {
	n.mu.Lock()
	defer n.mu.Unlock()

	record, ok := n.announcements[announcement]
	if !ok {
		return
	}

	delete(n.announcements, announcement)

	goodbye := record.Clone()
	goodbye.TTL = 0

	for query := range n.queries {
		query.deliver(goodbye)
	}
}

func (n *LoopbackNetwork) addQuery(query *loopbackQuery) {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.queries[query] = struct{}{}

	for _, record := range n.announcements {
		query.deliver(record)
	}
}

func (n *LoopbackNetwork) removeQuery(query *loopbackQuery) {
	n.mu.Lock()
	defer n.mu.Unlock()

	delete(n.queries, query)
}

// LoopbackTransport delivers records over LoopbackNetwork.
type LoopbackTransport struct {
	network *LoopbackNetwork
}

// Open is non-operational.
func (*LoopbackTransport) Open() error {
	return nil
}

// Announce makes the record visible to the queries on the network.
func (t *LoopbackTransport) Announce(
	record *sysmdns.ServiceRecord,
	_ sysmdns.InterfaceSelection,
) (sysmdns.Announcement, error) {
	announced := record.Clone()
	announced.TTL = t.network.params.TTL

	if len(announced.Addrs) == 0 {
		announced.Addrs = []net.IP{t.network.params.Addr}
	}

	return t.network.announce(announced), nil
}

// Query delivers the matching records announced on the network until ctx is cancelled.
func (t *LoopbackTransport) Query(
	ctx context.Context,
	serviceType sysmdns.ServiceType,
	_ sysmdns.InterfaceSelection,
	handler func(record *sysmdns.ServiceRecord),
) error {
	query := &loopbackQuery{
		ctx:         ctx,
		serviceType: serviceType,
		handler:     handler,
		recordCh:    make(chan *sysmdns.ServiceRecord, queryQueueSize),
	}

	go query.run()

	go func() {
		t.network.addQuery(query)

		<-ctx.Done()

		t.network.removeQuery(query)
	}()

	return nil
}

// Close is non-operational.
func (*LoopbackTransport) Close() error {
	return nil
}

type loopbackAnnouncement struct {
	network *LoopbackNetwork
	once    sync.Once
}

func (a *loopbackAnnouncement) Shutdown() {
	a.once.Do(func() {
		a.network.withdraw(a)
	})
}

type loopbackQuery struct {
	ctx         context.Context
	serviceType sysmdns.ServiceType
	handler     func(record *sysmdns.ServiceRecord)
	recordCh    chan *sysmdns.ServiceRecord
}

func (q *loopbackQuery) deliver(record *sysmdns.ServiceRecord) {
	if !q.serviceType.Equal(record.Type) {
		return
	}

	select {
	case q.recordCh <- record.Clone():
	case <-q.ctx.Done():
	}
}

func (q *loopbackQuery) run() {
	for {
		select {
		case record := <-q.recordCh:
			q.handler(record)

		case <-q.ctx.Done():
			return
		}
	}
}
