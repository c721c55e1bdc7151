package sysnet

import (
	"fmt"
	"net"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// InterfaceByIP returns the network interface which owns the IP address.
func InterfaceByIP(ip net.IP) (net.Interface, error) {
	if ip == nil {
		return net.Interface{}, fmt.Errorf("%w: empty IP address", status.StatusInvalidArg)
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return net.Interface{}, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		for _, addr := range addrs {
			if AddrIP(addr).Equal(ip) {
				return iface, nil
			}
		}
	}

	return net.Interface{}, fmt.Errorf("%w: no interface with address %s",
		status.StatusNoData, ip)
}

// InterfaceAddrs returns unicast addresses of the interfaces.
//
// Remarks:
//   - If ifaces is empty, addresses of all multicast capable interfaces are returned.
func InterfaceAddrs(ifaces []net.Interface) ([]net.IP, error) {
	if len(ifaces) == 0 {
		all, err := MulticastInterfaces()
		if err != nil {
			return nil, err
		}

		ifaces = all
	}

	var ret []net.IP

	for _, iface := range ifaces {
		addrs, err := iface.Addrs()
		if err != nil {
			return nil, fmt.Errorf("failed to read interface addresses: iface=%s: %w",
				iface.Name, err)
		}

		for _, addr := range addrs {
			ip := AddrIP(addr)
			if ip == nil || ip.IsUnspecified() || ip.IsMulticast() {
				continue
			}

			ret = append(ret, ip)
		}
	}

	return ret, nil
}

// MulticastInterfaces returns the interfaces which are up and support multicast.
func MulticastInterfaces() ([]net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list network interfaces: %w", err)
	}

	var ret []net.Interface

	for _, iface := range ifaces {
		if iface.Flags&net.FlagUp == 0 || iface.Flags&net.FlagMulticast == 0 {
			continue
		}

		ret = append(ret, iface)
	}

	return ret, nil
}

// AddrIP returns the IP address of the network address, nil if there is none.
func AddrIP(addr net.Addr) net.IP {
	switch a := addr.(type) {
	case *net.IPNet:
		return a.IP
	case *net.IPAddr:
		return a.IP
	case *net.UDPAddr:
		return a.IP
	case *net.TCPAddr:
		return a.IP
	default:
		return nil
	}
}
