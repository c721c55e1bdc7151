package sysmdns

import (
	"context"
	"fmt"
	"net"

	"github.com/grandcat/zeroconf"

	"github.com/open-control-systems/mdns-hub/components/core"
	"github.com/open-control-systems/mdns-hub/components/system/sysnet"
)

// ZeroconfTransportParams represents various options for zeroconf transport.
type ZeroconfTransportParams struct {
	// CheckPort is the port checked for availability when the transport is opened.
	//
	// Remarks:
	//  - Only affects the check, zeroconf always sends and receives on MdnsPort.
	CheckPort int

	// TTL is a time-to-live in seconds for the announced records.
	//
	// Remarks:
	//  - Zero means the zeroconf default.
	TTL uint32
}

// DefaultZeroconfTransportParams returns parameters for the standard mDNS setup.
func DefaultZeroconfTransportParams() ZeroconfTransportParams {
	return ZeroconfTransportParams{
		CheckPort: MdnsPort,
		TTL:       DefaultRecordTTL,
	}
}

// ZeroconfTransport sends and receives mDNS packets with the zeroconf library.
//
// References:
//   - https://github.com/grandcat/zeroconf
type ZeroconfTransport struct {
	params ZeroconfTransportParams
}

// NewZeroconfTransport is an initialization of ZeroconfTransport.
func NewZeroconfTransport(params ZeroconfTransportParams) *ZeroconfTransport {
	if params.CheckPort == 0 {
		params.CheckPort = MdnsPort
	}

	return &ZeroconfTransport{params: params}
}

// Open checks that the mDNS multicast group can be joined on the checked port.
func (t *ZeroconfTransport) Open() error {
	conn, err := sysnet.ListenMulticast(sysnet.MulticastParams{
		Group: net.ParseIP(MdnsGroupIPv4),
		Port:  t.params.CheckPort,
	})
	if err != nil {
		return fmt.Errorf("zeroconf-transport: failed to bind mDNS port: port=%d: %w",
			t.params.CheckPort, err)
	}

	return conn.Close()
}

// Announce registers the service with zeroconf server.
//
// Remarks:
//   - If the record doesn't contain addresses, the addresses of the selected
//     interfaces are announced.
func (t *ZeroconfTransport) Announce(
	record *ServiceRecord,
	selection InterfaceSelection,
) (Announcement, error) {
	addrs := record.Addrs
	if len(addrs) == 0 {
		ifaceAddrs, err := sysnet.InterfaceAddrs(selection.Ifaces)
		if err != nil {
			return nil, fmt.Errorf("zeroconf-transport: failed to read interface addresses: %w",
				err)
		}

		addrs = filterFamily(ifaceAddrs, selection.Family)
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("zeroconf-transport: no addresses to announce: %s", record)
	}

	var ips []string
	for _, addr := range SortAddrs(addrs) {
		ips = append(ips, addr.String())
	}

	text := record.Metadata.TxtRecords()
	if len(text) == 0 {
		// TXT record should contain at least a single string.
		text = []string{""}
	}

	server, err := zeroconf.RegisterProxy(
		record.Instance,
		record.Type.Service,
		record.Type.Domain,
		int(record.Port),
		record.Hostname,
		ips,
		text,
		selection.Ifaces,
	)
	if err != nil {
		return nil, fmt.Errorf("zeroconf-transport: failed to register service: %s: %w",
			record, err)
	}

	if t.params.TTL > 0 {
		server.TTL(t.params.TTL)
	}

	return server, nil
}

// Query browses the local network for the service type.
func (t *ZeroconfTransport) Query(
	ctx context.Context,
	serviceType ServiceType,
	selection InterfaceSelection,
	handler func(record *ServiceRecord),
) error {
	opts := []zeroconf.ClientOption{zeroconf.SelectIPTraffic(zeroconfIPType(selection.Family))}
	if len(selection.Ifaces) > 0 {
		opts = append(opts, zeroconf.SelectIfaces(selection.Ifaces))
	}

	resolver, err := zeroconf.NewResolver(opts...)
	if err != nil {
		return fmt.Errorf("zeroconf-transport: failed to create resolver: %w", err)
	}

	entries := make(chan *zeroconf.ServiceEntry)

	if err := resolver.Browse(ctx, serviceType.Service, serviceType.Domain, entries); err != nil {
		return fmt.Errorf("zeroconf-transport: failed to browse: type=%s: %w", serviceType, err)
	}

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}

				if entry != nil {
					handler(entryToRecord(serviceType, entry))
				}

			case <-ctx.Done():
				return
			}
		}
	}()

	return nil
}

// Close is non-operational, zeroconf resources are owned by servers and resolvers.
func (*ZeroconfTransport) Close() error {
	return nil
}

func entryToRecord(serviceType ServiceType, entry *zeroconf.ServiceEntry) *ServiceRecord {
	record := &ServiceRecord{
		Instance: unescapeLabel(entry.Instance),
		Type:     serviceType,
		Hostname: entry.HostName,
		Port:     uint16(entry.Port),
		Metadata: ParseTxtRecords(entry.Text),
		TTL:      entry.TTL,
	}

	record.Addrs = append(record.Addrs, entry.AddrIPv4...)
	record.Addrs = append(record.Addrs, entry.AddrIPv6...)

	if len(record.Addrs) == 0 {
		core.LogWrn.Printf("zeroconf-transport: entry without addresses: instance=%q type=%s\n",
			record.Instance, serviceType)
	}

	return record
}

func zeroconfIPType(family IPFamily) zeroconf.IPType {
	switch family {
	case FamilyIPv4:
		return zeroconf.IPv4
	case FamilyIPv6:
		return zeroconf.IPv6
	default:
		return zeroconf.IPv4AndIPv6
	}
}

func filterFamily(addrs []net.IP, family IPFamily) []net.IP {
	var ret []net.IP

	for _, addr := range addrs {
		isIPv4 := addr.To4() != nil

		switch {
		case family == FamilyIPv4 && !isIPv4:
		case family == FamilyIPv6 && isIPv4:
		default:
			ret = append(ret, addr)
		}
	}

	return ret
}
