package sysnet

import (
	"bytes"
	"fmt"
	"net"
	"strconv"
	"time"
)

// ProbeParams represents various options for the multicast environment probe.
type ProbeParams struct {
	// Port is the mDNS port to check, e.g. 5353.
	Port int

	// Group is the mDNS multicast group used for the per-interface checks.
	Group net.IP

	// Timeout is how long to wait for each looped back packet.
	Timeout time.Duration
}

// ProbeResult is the result of a single environment check.
type ProbeResult struct {
	// Check is a short check name, e.g. "multicast-loopback".
	Check string `json:"check"`

	// OK is true if the check passed.
	OK bool `json:"ok"`

	// Detail is a human readable check result.
	Detail string `json:"detail"`
}

// Probe checks whether the OS network stack can deliver multicast traffic to the process.
//
// Remarks:
//   - Results are informational: a failed loopback check doesn't mean discovery
//     between different machines is broken, only that the same machine can't see
//     its own packets, e.g. on Windows with Hyper-V virtual switches.
func Probe(params ProbeParams) []ProbeResult {
	results := []ProbeResult{
		probeLoopback(params.Timeout),
		probePort(params.Port),
	}

	return append(results, probeInterfaces(params.Group, params.Timeout)...)
}

var (
	probeLoopbackGroup   = net.IPv4(239, 255, 77, 88)
	probeLoopbackPayload = []byte("MCAST_LOOPBACK_TEST")
	probeIfacePayload    = []byte("PROBE")
)

func probeLoopback(timeout time.Duration) ProbeResult {
	result := ProbeResult{Check: "multicast-loopback"}

	conn, err := ListenMulticast(MulticastParams{
		Group:    probeLoopbackGroup,
		Loopback: true,
	})
	if err != nil {
		result.Detail = err.Error()

		return result
	}
	defer conn.Close() //nolint:errcheck

	result.OK, result.Detail = roundTrip(conn, probeLoopbackPayload, timeout)

	return result
}

func probePort(port int) ProbeResult {
	result := ProbeResult{Check: "port-" + strconv.Itoa(port)}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		result.Detail = fmt.Sprintf("port is in use, another mDNS responder is running,"+
			" the port is shared with SO_REUSEADDR: %v", err)

		return result
	}
	_ = conn.Close()

	result.OK = true
	result.Detail = "port is free"

	return result
}

func probeInterfaces(group net.IP, timeout time.Duration) []ProbeResult {
	ifaces, err := MulticastInterfaces()
	if err != nil {
		return []ProbeResult{{Check: "interfaces", Detail: err.Error()}}
	}

	if len(ifaces) == 0 {
		return []ProbeResult{{Check: "interfaces", Detail: "no multicast capable interfaces"}}
	}

	var results []ProbeResult

	for n := range ifaces {
		result := ProbeResult{Check: "iface-" + ifaces[n].Name}

		conn, err := ListenMulticast(MulticastParams{
			Group:    group,
			Iface:    &ifaces[n],
			Loopback: true,
		})
		if err != nil {
			result.Detail = err.Error()
			results = append(results, result)

			continue
		}

		result.OK, result.Detail = roundTrip(conn, probeIfacePayload, timeout)
		results = append(results, result)

		_ = conn.Close()
	}

	return results
}

func roundTrip(conn *MulticastConn, payload []byte, timeout time.Duration) (bool, string) {
	if err := conn.WriteToGroup(payload); err != nil {
		return false, fmt.Sprintf("failed to send: %v", err)
	}

	buf := make([]byte, 512)
	deadline := time.Now().Add(timeout)

	for {
		remaining := time.Until(deadline)
		if remaining <= 0 {
			return false, "multicast loopback failed: timeout"
		}

		n, _, err := conn.Read(buf, remaining)
		if err != nil {
			return false, fmt.Sprintf("multicast loopback failed: %v", err)
		}

		if bytes.Equal(buf[:n], payload) {
			return true, "multicast loopback works"
		}
	}
}
