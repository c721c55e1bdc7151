package sysmdns

import "time"

const (
	// MdnsPort is the well-known mDNS port.
	MdnsPort = 5353

	// MdnsGroupIPv4 is the mDNS IPv4 multicast group.
	MdnsGroupIPv4 = "224.0.0.251"

	// MdnsGroupIPv6 is the mDNS IPv6 multicast group.
	MdnsGroupIPv6 = "ff02::fb"

	// DefaultRecordTTL is a time-to-live in seconds for the announced records.
	//
	// References:
	//  - https://datatracker.ietf.org/doc/html/rfc6762#section-10
	DefaultRecordTTL = 120
)

const (
	defaultSweepInterval    = time.Second
	defaultRefreshInterval  = time.Second * 15
	defaultCommandQueueSize = 64
)
