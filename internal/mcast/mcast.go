// Package mcast implements the multicast egress socket: one UDP socket with
// IP_MULTICAST_TTL set, writing one datagram per envelope to a fixed
// destination group/port.
package mcast

import (
	"fmt"
	"net"

	"golang.org/x/net/ipv4"
)

// Egress is the datagram socket the broadcaster writes to. It is immutable
// after Open: group, port and TTL never change for the process lifetime.
type Egress struct {
	pc   *ipv4.PacketConn
	dst  *net.UDPAddr
	conn net.PacketConn
}

// Open creates the UDP socket, sets IP_MULTICAST_TTL to ttl, and
// pre-resolves the destination group:port sockaddr.
func Open(group string, port int, ttl int) (*Egress, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("mcast: open socket: %w", err)
	}
	pc := ipv4.NewPacketConn(conn)
	if err := pc.SetMulticastTTL(ttl); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("mcast: set ttl: %w", err)
	}
	dst := &net.UDPAddr{IP: net.ParseIP(group), Port: port}
	return &Egress{pc: pc, dst: dst, conn: conn}, nil
}

// Send writes payload as one datagram to the configured group/port. Errors
// are the caller's to log; they are never fatal.
func (e *Egress) Send(payload []byte) error {
	_, err := e.pc.WriteTo(payload, nil, e.dst)
	return err
}

// Close releases the underlying socket.
func (e *Egress) Close() error {
	return e.conn.Close()
}
