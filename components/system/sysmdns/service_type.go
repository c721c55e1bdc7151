package sysmdns

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"

	"github.com/open-control-systems/mdns-hub/components/status"
)

const (
	// ProtoTCP is used for application protocols that run over TCP.
	ProtoTCP = "_tcp"

	// ProtoUDP is used for all other application protocols.
	ProtoUDP = "_udp"
)

// ServiceType is a DNS-SD service type split into the service and the domain parts.
//
// Examples:
//   - "_mygame._tcp.local." -> Service: "_mygame._tcp", Domain: "local."
//
// References:
//   - https://www.ietf.org/rfc/rfc6763.txt
//   - http://www.dns-sd.org/serviceTypes.html
type ServiceType struct {
	// Service is a service name with the protocol label, e.g. "_http._tcp".
	Service string

	// Domain is a service domain with the trailing dot, e.g. "local.".
	Domain string

	raw string
}

// ParseServiceType parses the service type, e.g. "_http._tcp.local.".
//
// Remarks:
//   - The service type should be fully qualified, i.e. end with a dot.
//   - The original text is kept as is, see String().
func ParseServiceType(s string) (ServiceType, error) {
	if !dns.IsFqdn(s) {
		return ServiceType{}, fmt.Errorf("%w: service type should end with a dot: %q",
			status.StatusInvalidArg, s)
	}

	if _, ok := dns.IsDomainName(s); !ok {
		return ServiceType{}, fmt.Errorf("%w: malformed service type: %q",
			status.StatusInvalidArg, s)
	}

	labels := dns.SplitDomainName(s)
	if len(labels) < 3 {
		return ServiceType{}, fmt.Errorf("%w: service type should contain"+
			" service, protocol and domain: %q", status.StatusInvalidArg, s)
	}

	if len(labels[0]) < 2 || !strings.HasPrefix(labels[0], "_") {
		return ServiceType{}, fmt.Errorf("%w: service name should start with '_': %q",
			status.StatusInvalidArg, s)
	}

	proto := strings.ToLower(labels[1])
	if proto != ProtoTCP && proto != ProtoUDP {
		return ServiceType{}, fmt.Errorf("%w: unsupported service protocol: %q",
			status.StatusInvalidArg, s)
	}

	return ServiceType{
		Service: labels[0] + "." + labels[1],
		Domain:  dns.Fqdn(strings.Join(labels[2:], ".")),
		raw:     s,
	}, nil
}

// String returns the service type as it was provided by the caller.
func (t ServiceType) String() string {
	return t.raw
}

// Fullname makes the service instance name, e.g. "My Server._http._tcp.local.".
func (t ServiceType) Fullname(instance string) string {
	return instance + "." + t.raw
}

// Equal reports whether both types refer to the same service, ignoring letter case.
func (t ServiceType) Equal(other ServiceType) bool {
	return strings.EqualFold(t.Service, other.Service) &&
		strings.EqualFold(t.Domain, other.Domain)
}

func nameKey(fullname string) string {
	return strings.ToLower(fullname)
}
