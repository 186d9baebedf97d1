package transport

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/logger"
)

// readDeadline bounds each ReadFromUDP call so Run can notice ctx
// cancellation promptly instead of blocking forever on an idle socket.
const readDeadline = 250 * time.Millisecond

// UDPTransport is the real OS-socket Transport implementation.
type UDPTransport struct {
	conn     *net.UDPConn
	receiver Receiver
	log      *logger.Logger
}

// NewUDPTransport opens a UDP socket listening on port across all
// interfaces.
func NewUDPTransport(port int, log *logger.Logger) (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("listen udp :%d: %w", port, err)
	}
	return &UDPTransport{conn: conn, log: log.WithComponent("transport.udp")}, nil
}

// SetReceiver installs the datagram callback.
func (t *UDPTransport) SetReceiver(r Receiver) {
	t.receiver = r
}

// SendDatagram writes data to addr.
func (t *UDPTransport) SendDatagram(data []byte, addr *net.UDPAddr) error {
	_, err := t.conn.WriteToUDP(data, addr)
	return err
}

// LocalAddr returns the socket's bound local address.
func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

// Run blocks receiving datagrams and handing them to the installed
// Receiver until ctx is cancelled or the socket errors.
func (t *UDPTransport) Run(ctx context.Context) error {
	buf := make([]byte, 4096)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t.conn.SetReadDeadline(time.Now().Add(readDeadline))
		n, addr, err := t.conn.ReadFromUDP(buf)
		if err != nil {
			if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
				continue
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			t.log.Error("udp read failed", logger.Error(err))
			continue
		}

		if t.receiver != nil {
			data := make([]byte, n)
			copy(data, buf[:n])
			t.receiver.RecvDatagram(data, addr)
		}
	}
}

// Close releases the underlying socket.
func (t *UDPTransport) Close() error {
	return t.conn.Close()
}
