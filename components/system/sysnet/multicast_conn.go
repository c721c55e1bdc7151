package sysnet

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/open-control-systems/mdns-hub/components/status"
)

// MulticastParams represents various options for the multicast UDP socket.
type MulticastParams struct {
	// Group is an IPv4 multicast group, e.g. 224.0.0.251.
	Group net.IP

	// Port is a UDP port, zero to pick a random port.
	Port int

	// Iface is an interface to join the group on, nil to join on all multicast
	// capable interfaces.
	Iface *net.Interface

	// Loopback enables delivery of the own packets.
	Loopback bool
}

// MulticastConn is an IPv4 UDP socket joined to a multicast group.
//
// Remarks:
//   - The port is shared with other sockets, e.g. the system mDNS responder.
type MulticastConn struct {
	conn   net.PacketConn
	pconn  *ipv4.PacketConn
	group  *net.UDPAddr
	ifaces []string
}

// ListenMulticast opens the UDP socket and joins the multicast group.
func ListenMulticast(params MulticastParams) (*MulticastConn, error) {
	if params.Group.To4() == nil || !params.Group.IsMulticast() {
		return nil, fmt.Errorf("%w: not an IPv4 multicast group: %s",
			status.StatusInvalidArg, params.Group)
	}

	lc := net.ListenConfig{Control: reuseControl}

	conn, err := lc.ListenPacket(context.Background(), "udp4",
		net.JoinHostPort("0.0.0.0", strconv.Itoa(params.Port)))
	if err != nil {
		return nil, err
	}

	c := &MulticastConn{
		conn:  conn,
		pconn: ipv4.NewPacketConn(conn),
		group: &net.UDPAddr{
			IP:   params.Group,
			Port: conn.LocalAddr().(*net.UDPAddr).Port,
		},
	}

	if err := c.join(params.Iface); err != nil {
		_ = conn.Close()

		return nil, err
	}

	if err := c.pconn.SetMulticastLoopback(params.Loopback); err != nil {
		_ = conn.Close()

		return nil, fmt.Errorf("failed to set multicast loopback: %w", err)
	}

	return c, nil
}

// GroupAddr returns the multicast group address with the socket port.
func (c *MulticastConn) GroupAddr() *net.UDPAddr {
	return c.group
}

// Ifaces returns names of the interfaces the group was joined on.
//
// Remarks:
//   - Empty if the group was joined on the system default interface.
func (c *MulticastConn) Ifaces() []string {
	return c.ifaces
}

// WriteToGroup sends the packet to the multicast group.
func (c *MulticastConn) WriteToGroup(buf []byte) error {
	_, err := c.conn.WriteTo(buf, c.group)

	return err
}

// Read reads a single packet waiting no longer than timeout.
func (c *MulticastConn) Read(buf []byte, timeout time.Duration) (int, net.Addr, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, nil, err
	}

	return c.conn.ReadFrom(buf)
}

// Close closes the socket, the group membership is dropped by the OS.
func (c *MulticastConn) Close() error {
	return c.conn.Close()
}

func (c *MulticastConn) join(iface *net.Interface) error {
	group := &net.UDPAddr{IP: c.group.IP}

	if iface != nil {
		if err := c.pconn.JoinGroup(iface, group); err != nil {
			return fmt.Errorf("failed to join multicast group: group=%s iface=%s: %w",
				group.IP, iface.Name, err)
		}

		c.ifaces = append(c.ifaces, iface.Name)

		return nil
	}

	ifaces, err := MulticastInterfaces()
	if err != nil {
		return err
	}

	for n := range ifaces {
		if err := c.pconn.JoinGroup(&ifaces[n], group); err == nil {
			c.ifaces = append(c.ifaces, ifaces[n].Name)
		}
	}

	if len(c.ifaces) > 0 {
		return nil
	}

	if err := c.pconn.JoinGroup(nil, group); err != nil {
		return fmt.Errorf("failed to join multicast group on any interface: group=%s: %w",
			group.IP, err)
	}

	return nil
}
