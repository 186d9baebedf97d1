package transport

import (
	"net"
	"sync"
)

// SentDatagram records one outbound write made through a MemoryTransport.
type SentDatagram struct {
	Data []byte
	Addr *net.UDPAddr
}

// MemoryTransport is an in-memory Transport fake for handshake and
// routing test scenarios: sends are recorded rather than put on the
// wire, and test code drives inbound traffic directly via Deliver.
type MemoryTransport struct {
	mu       sync.Mutex
	receiver Receiver
	Sent     []SentDatagram
}

// NewMemoryTransport returns an empty in-memory transport.
func NewMemoryTransport() *MemoryTransport {
	return &MemoryTransport{}
}

// SetReceiver installs the datagram callback.
func (m *MemoryTransport) SetReceiver(r Receiver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.receiver = r
}

// SendDatagram records data as sent to addr. It never errors.
func (m *MemoryTransport) SendDatagram(data []byte, addr *net.UDPAddr) error {
	cp := make([]byte, len(data))
	copy(cp, data)

	m.mu.Lock()
	m.Sent = append(m.Sent, SentDatagram{Data: cp, Addr: addr})
	m.mu.Unlock()
	return nil
}

// Deliver hands data to the installed receiver as if it had arrived from
// addr, synchronously on the calling goroutine.
func (m *MemoryTransport) Deliver(data []byte, addr *net.UDPAddr) {
	m.mu.Lock()
	r := m.receiver
	m.mu.Unlock()
	if r != nil {
		r.RecvDatagram(data, addr)
	}
}

// SentTo returns every datagram recorded as sent to addr, in order.
func (m *MemoryTransport) SentTo(addr *net.UDPAddr) [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out [][]byte
	for _, s := range m.Sent {
		if s.Addr.String() == addr.String() {
			out = append(out, s.Data)
		}
	}
	return out
}

// Reset discards every recorded sent datagram.
func (m *MemoryTransport) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Sent = nil
}
