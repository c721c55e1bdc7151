package sysmdns

import (
	"net"
	"sort"
)

// SortAddrs orders addresses so that all IPv4 addresses precede all IPv6 addresses.
//
// Remarks:
//   - The order within each address family is preserved.
//   - IPv4-mapped IPv6 addresses are treated as IPv4.
//   - Consumers often use the first address as a plain host string, which doesn't work
//     for a link-local IPv6 address without a zone.
func SortAddrs(addrs []net.IP) []net.IP {
	sorted := make([]net.IP, len(addrs))
	copy(sorted, addrs)

	sort.SliceStable(sorted, func(i, j int) bool {
		return addrFamilyRank(sorted[i]) < addrFamilyRank(sorted[j])
	})

	return sorted
}

// FormatAddrs sorts addresses with SortAddrs and returns their text form.
func FormatAddrs(addrs []net.IP) []string {
	var ret []string

	for _, addr := range SortAddrs(addrs) {
		ret = append(ret, addr.String())
	}

	return ret
}

func addrFamilyRank(addr net.IP) int {
	if addr.To4() != nil {
		return 0
	}

	return 1
}

func equalAddrs(a, b []net.IP) bool {
	if len(a) != len(b) {
		return false
	}

	for n := range a {
		if !a[n].Equal(b[n]) {
			return false
		}
	}

	return true
}
