package sysmdns

import (
	"fmt"
	"net"
	"strings"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// ServiceRecord is a single mDNS service, either advertised locally or discovered
// on the local network.
type ServiceRecord struct {
	// Instance is a service instance name, e.g. "Bonsai GrowLab Firmware".
	Instance string

	// Type is a service type, e.g. "_http._tcp.local.".
	Type ServiceType

	// Hostname is a host machine DNS name, e.g. "bonsai-growlab.local.".
	Hostname string

	// Addrs is a set of the host machine IP addresses.
	//
	// Remarks:
	//  - Empty for a locally registered service, the engine fills it with the addresses
	//    of the enabled interfaces.
	Addrs []net.IP

	// Port is a service port, e.g. 80.
	Port uint16

	// Metadata is a set of the service TXT records, e.g. "api_version=v1".
	Metadata Metadata

	// TTL is a record time-to-live in seconds, zero for the service removal.
	TTL uint32
}

// NewServiceRecord builds a service record for registration.
//
// Parameters:
//   - instance - service instance name, unique among the service type instances on the LAN.
//   - serviceType - service type, e.g. "_mygame._tcp.local.".
//   - hostname - host machine DNS name, e.g. "my-pc.local.".
//   - port - service port, should be non-zero.
//   - metadata - TXT records.
func NewServiceRecord(
	instance string,
	serviceType string,
	hostname string,
	port uint16,
	metadata Metadata,
) (*ServiceRecord, error) {
	if instance == "" {
		return nil, fmt.Errorf("%w: empty instance name", status.StatusInvalidArg)
	}

	if len(instance) > maxLabelLength {
		return nil, fmt.Errorf("%w: instance name is too long: len=%d max=%d",
			status.StatusInvalidArg, len(instance), maxLabelLength)
	}

	st, err := ParseServiceType(serviceType)
	if err != nil {
		return nil, err
	}

	if strings.TrimSuffix(hostname, ".") == "" {
		return nil, fmt.Errorf("%w: empty hostname", status.StatusInvalidArg)
	}

	if port == 0 {
		return nil, fmt.Errorf("%w: zero port", status.StatusInvalidArg)
	}

	return &ServiceRecord{
		Instance: instance,
		Type:     st,
		Hostname: hostname,
		Port:     port,
		Metadata: append(Metadata(nil), metadata...),
	}, nil
}

// Fullname returns the fully qualified service instance name,
// e.g. "Bonsai GrowLab Firmware._http._tcp.local.".
func (r *ServiceRecord) Fullname() string {
	return r.Type.Fullname(r.Instance)
}

// Clone returns a deep copy of the record.
func (r *ServiceRecord) Clone() *ServiceRecord {
	c := *r

	c.Addrs = nil
	for _, addr := range r.Addrs {
		c.Addrs = append(c.Addrs, append(net.IP(nil), addr...))
	}

	c.Metadata = append(Metadata(nil), r.Metadata...)

	return &c
}

// String returns a short human readable record description.
func (r *ServiceRecord) String() string {
	return fmt.Sprintf("instance=%q type=%s hostname=%s port=%d addrs=%v",
		r.Instance, r.Type, r.Hostname, r.Port, FormatAddrs(r.Addrs))
}

func (r *ServiceRecord) sameAs(other *ServiceRecord) bool {
	return r.Port == other.Port &&
		strings.EqualFold(r.Hostname, other.Hostname) &&
		equalAddrs(SortAddrs(r.Addrs), SortAddrs(other.Addrs)) &&
		r.Metadata.Equal(other.Metadata)
}

// Maximum length of a DNS label.
const maxLabelLength = 63
