package sysmdns

import (
	"context"
	"net"
)

// IPFamily restricts the IP traffic of the engine.
type IPFamily int

const (
	// FamilyAny allows both IPv4 and IPv6 traffic.
	FamilyAny IPFamily = iota

	// FamilyIPv4 allows IPv4 traffic only.
	FamilyIPv4

	// FamilyIPv6 allows IPv6 traffic only.
	FamilyIPv6
)

// InterfaceSelection describes network interfaces the engine operates on.
type InterfaceSelection struct {
	// All is true if the engine uses all multicast capable interfaces.
	All bool

	// Ifaces are explicitly enabled interfaces, ignored if All is true.
	Ifaces []net.Interface

	// Family restricts the IP traffic.
	Family IPFamily
}

// Empty reports whether no interface is enabled.
func (s InterfaceSelection) Empty() bool {
	return !s.All && len(s.Ifaces) == 0
}

// Announcement is a single service announced on the network.
type Announcement interface {
	// Shutdown stops answering queries for the service and sends goodbye packets.
	Shutdown()
}

// Transport sends and receives mDNS packets on behalf of the engine.
type Transport interface {
	// Open checks that the mDNS port is available for the engine.
	Open() error

	// Announce starts answering queries for the record.
	Announce(record *ServiceRecord, selection InterfaceSelection) (Announcement, error)

	// Query starts browsing for the service type until ctx is cancelled.
	//
	// Remarks:
	//  - Non-blocking, handler is called from the transport goroutine for each resolved
	//    service instance.
	//  - Service removal is reported with zero TTL.
	Query(
		ctx context.Context,
		serviceType ServiceType,
		selection InterfaceSelection,
		handler func(record *ServiceRecord),
	) error

	// Close releases transport resources.
	Close() error
}
