// Package transport defines the datagram transport the dispatcher sends
// and receives on, with a real UDP socket implementation and an
// in-memory fake for tests.
package transport

import "net"

// Receiver is fed every inbound datagram a Transport accepts.
type Receiver interface {
	RecvDatagram(data []byte, addr *net.UDPAddr)
}

// Transport is a thin polymorphic send/receive interface: any
// UDP-capable implementation (a real OS socket, or an in-memory fake for
// tests) satisfies it.
type Transport interface {
	// SendDatagram writes data to addr.
	SendDatagram(data []byte, addr *net.UDPAddr) error
	// SetReceiver installs the callback invoked for every inbound
	// datagram. It must be called before the transport starts receiving.
	SetReceiver(r Receiver)
}
