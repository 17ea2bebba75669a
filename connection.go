// Package ssdp implements the transport layer shared by Service and
// ServiceFinder: one UDP socket joined to the SSDP multicast group for
// receiving, and short-lived per-send sockets pinned to a source interface.
package ssdp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/ipv4"
)

// receiveTick bounds a single wait inside the receive loop. The overall
// caller timeout is checked once per tick, so the minimum effective timeout
// of a receive-loop call is one tick.
const receiveTick = 100 * time.Millisecond

// multicastConn is the bound, group-joined receive socket of one façade.
// It is owned exclusively by that façade and is not safe for concurrent use.
type multicastConn struct {
	group net.IP
	port  int
	conn  *net.UDPConn
	pconn *ipv4.PacketConn
	buf   [maxBufferLen]byte
}

// openMulticastConn binds a UDP socket to (INADDR_ANY, port) with address
// reuse enabled and joins the given multicast group on the system-chosen
// interface.
//
// Returns an error carrying the OS error if any step fails; no socket is
// leaked on failure.
func openMulticastConn(group net.IP, port int) (*multicastConn, error) {
	if port == 0 {
		return nil, fmt.Errorf("ssdp port %d has not been set up right", port)
	}

	lc := net.ListenConfig{Control: reuseAddr}
	pc, err := lc.ListenPacket(context.Background(), "udp4", ":"+strconv.Itoa(port))
	if err != nil {
		return nil, fmt.Errorf("bind to port %d for multicast failed: %w", port, err)
	}
	conn := pc.(*net.UDPConn)

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(nil, &net.UDPAddr{IP: group}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("joining multicast group %s failed: %w", group, err)
	}

	return &multicastConn{
		group: group,
		port:  port,
		conn:  conn,
		pconn: pconn,
	}, nil
}

// close releases the bound receive socket. A receive loop running on the
// connection ends cleanly once the socket is closed.
func (c *multicastConn) close() error {
	return c.conn.Close()
}

// groupAddr returns the multicast destination of outbound advertisements.
func (c *multicastConn) groupAddr() *net.UDPAddr {
	return &net.UDPAddr{IP: c.group, Port: c.port}
}

// sendFrom transmits one datagram through an ephemeral socket bound to
// (source, 0), which pins the outbound interface. Multicast loopback is
// enabled so peers on the sending host observe the datagram as well. The
// ephemeral socket is released on every exit path.
func (c *multicastConn) sendFrom(message string, source net.IP, dest *net.UDPAddr) error {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: source})
	if err != nil {
		return fmt.Errorf("bind to address %s failed: %w", source, err)
	}
	defer conn.Close()

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.SetMulticastLoopback(true); err != nil {
		return fmt.Errorf("enabling multicast loopback on %s failed: %w", source, err)
	}

	if _, err := conn.WriteToUDP([]byte(message), dest); err != nil {
		return fmt.Errorf("sendto %s from %s failed: %w", dest, source, err)
	}
	return nil
}

// receive waits up to one tick for a datagram and parses it. The boolean
// reports whether a valid packet was produced; a tick without traffic or a
// malformed datagram yields (false, nil). Closure of the socket surfaces as
// net.ErrClosed, any other receive failure as an error carrying the OS
// error.
func (c *multicastConn) receive(tick time.Duration) (packet, bool, error) {
	if err := c.conn.SetReadDeadline(time.Now().Add(tick)); err != nil {
		if errors.Is(err, net.ErrClosed) {
			return packet{}, false, net.ErrClosed
		}
		return packet{}, false, fmt.Errorf("arming read deadline failed: %w", err)
	}

	n, from, err := c.conn.ReadFromUDP(c.buf[:])
	if err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return packet{}, false, nil
		}
		if errors.Is(err, net.ErrClosed) {
			return packet{}, false, net.ErrClosed
		}
		return packet{}, false, fmt.Errorf("recvfrom %s failed: %w", c.group, err)
	}

	pkt, valid := parsePacket(c.buf[:n])
	if !valid {
		return packet{}, false, nil
	}
	pkt.ReceivedFrom = from.IP.To4()
	pkt.ReceivedAt = time.Now()
	return pkt, true, nil
}

// runReceiveLoop drains the socket until the caller's timeout has elapsed,
// invoking handle for every valid packet in arrival order. The loop wakes
// every receiveTick to re-check the overall timeout; closure of the socket
// ends the loop early without error.
func (c *multicastConn) runReceiveLoop(timeout time.Duration, handle func(packet)) error {
	begin := time.Now()
	for {
		pkt, ok, err := c.receive(receiveTick)
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return err
		}
		if ok {
			handle(pkt)
		}
		if time.Since(begin) >= timeout {
			return nil
		}
	}
}
