package peer

import (
	"net"
	"sync"
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Peer represents one connected repeater's handshake state, address, and
// reported configuration.
type Peer struct {
	ID      uint32
	Address *net.UDPAddr
	State   State

	Callsign    string
	RXFreq      string
	TXFreq      string
	Power       string
	ColorCode   string
	Latitude    string
	Longitude   string
	Height      string
	Location    string
	Description string
	Slots       string
	URL         string
	SoftwareID  string
	PackageID   string

	ConnectedAt time.Time
	LastHeard   time.Time
	Salt        [protocol.SaltLength]byte

	PacketsReceived uint64
	BytesReceived   uint64
	PacketsSent     uint64
	BytesSent       uint64

	mu sync.RWMutex
}

// Snapshot is a read-only view of a Peer suitable for API responses.
type Snapshot struct {
	ID          uint32    `json:"id"`
	Address     string    `json:"address"`
	State       string    `json:"state"`
	Callsign    string    `json:"callsign"`
	Location    string    `json:"location"`
	ConnectedAt time.Time `json:"connected_at"`
	LastHeard   time.Time `json:"last_heard"`
	PacketsRx   uint64    `json:"packets_rx"`
	BytesRx     uint64    `json:"bytes_rx"`
	PacketsTx   uint64    `json:"packets_tx"`
	BytesTx     uint64    `json:"bytes_tx"`
}

// Snapshot returns a consistent read-only snapshot of the peer's state.
func (p *Peer) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	snap := Snapshot{
		ID:          p.ID,
		State:       p.State.String(),
		Callsign:    p.Callsign,
		Location:    p.Location,
		ConnectedAt: p.ConnectedAt,
		LastHeard:   p.LastHeard,
		PacketsRx:   p.PacketsReceived,
		BytesRx:     p.BytesReceived,
		PacketsTx:   p.PacketsSent,
		BytesTx:     p.BytesSent,
	}
	if p.Address != nil {
		snap.Address = p.Address.String()
	}
	return snap
}

// New creates a new peer in StateLogin at the given address.
func New(id uint32, addr *net.UDPAddr) *Peer {
	return &Peer{
		ID:      id,
		Address: addr,
		State:   StateLogin,
	}
}

// SetState updates the peer's handshake state.
func (p *Peer) SetState(state State) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.State = state
}

// GetState returns the peer's current handshake state.
func (p *Peer) GetState() State {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.State
}

// IsApplicable reports whether a packet requiring at-least `requirement`
// may be processed in the peer's current state.
func (p *Peer) IsApplicable(requirement State) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return isApplicable(requirement, p.State)
}

// UpdateLastHeard sets the last-heard timestamp to now.
func (p *Peer) UpdateLastHeard() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.LastHeard = time.Now()
}

// GetLastHeard returns the last-heard timestamp.
func (p *Peer) GetLastHeard() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.LastHeard
}

// IsTimedOut reports whether the peer hasn't been heard from within
// timeout. A peer never heard from is always considered timed out.
func (p *Peer) IsTimedOut(timeout time.Duration) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.LastHeard.IsZero() {
		return true
	}
	return time.Since(p.LastHeard) > timeout
}

// SetSalt stores the login-challenge salt issued to this peer.
func (p *Peer) SetSalt(salt [protocol.SaltLength]byte) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Salt = salt
}

// GetSalt returns the login-challenge salt issued to this peer.
func (p *Peer) GetSalt() [protocol.SaltLength]byte {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.Salt
}

// SetActive marks the peer ACTIVE and records the connection time.
func (p *Peer) SetActive() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.State = StateActive
	p.ConnectedAt = time.Now()
}

// GetConnectedAt returns the time the peer reached StateActive.
func (p *Peer) GetConnectedAt() time.Time {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.ConnectedAt
}

// SetConfig applies a peer's reported RPTC configuration block.
func (p *Peer) SetConfig(config *protocol.ConfigPacket) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Callsign = config.Callsign
	p.RXFreq = config.RXFreq
	p.TXFreq = config.TXFreq
	p.Power = config.Power
	p.ColorCode = config.ColorCode
	p.Latitude = config.Lat
	p.Longitude = config.Lon
	p.Height = config.Height
	p.Location = config.Location
	p.Description = config.Description
	p.Slots = config.Slots
	p.URL = config.URL
	p.SoftwareID = config.SoftwareID
	p.PackageID = config.PackageID
}

// IncrementPacketsReceived increments the packets-received counter.
func (p *Peer) IncrementPacketsReceived() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PacketsReceived++
}

// AddBytesReceived adds to the bytes-received counter.
func (p *Peer) AddBytesReceived(n uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BytesReceived += n
}

// IncrementPacketsSent increments the packets-sent counter.
func (p *Peer) IncrementPacketsSent() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.PacketsSent++
}

// AddBytesSent adds to the bytes-sent counter.
func (p *Peer) AddBytesSent(n uint64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.BytesSent += n
}

// GetUptime returns how long the peer has been ACTIVE, or 0 if it never
// reached StateActive.
func (p *Peer) GetUptime() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.ConnectedAt.IsZero() {
		return 0
	}
	return time.Since(p.ConnectedAt)
}
