package peer

import (
	"net"
	"sync"
	"time"
)

// PingTimeout is the maximum gap between RPTPING packets before a peer
// is considered dead and pruned by maintenance.
const PingTimeout = 130 * time.Second

// Registry manages every known Peer in a thread-safe manner, indexed by
// both address and ID. It is expected to be mutated from a single
// goroutine (the dispatcher); its locking exists so the read-only
// dashboard can take safe snapshots concurrently.
type Registry struct {
	mu       sync.RWMutex
	byAddr   map[string]*Peer
	byID     map[uint32]*Peer
	Units    *UnitTable
	maxPeers int
}

// NewRegistry returns an empty peer registry with no cap on peer count.
func NewRegistry() *Registry {
	return &Registry{
		byAddr: make(map[string]*Peer),
		byID:   make(map[uint32]*Peer),
		Units:  NewUnitTable(),
	}
}

// NewRegistryWithLimit returns an empty peer registry that refuses to
// admit a new peer ID once it already holds max peers. A max of 0 or
// less means unlimited (config validation itself rejects a max_peers
// below 1 for an enabled system).
func NewRegistryWithLimit(max int) *Registry {
	r := NewRegistry()
	r.maxPeers = max
	return r
}

// GetByAddr returns the peer bound to addr, if any.
func (r *Registry) GetByAddr(addr *net.UDPAddr) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byAddr[addr.String()]
	return p, ok
}

// GetByID returns the peer with the given repeater ID, if any.
func (r *Registry) GetByID(id uint32) (*Peer, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	return p, ok
}

// Add registers a new peer at addr in StateLogin. It returns an error if
// either the address or the ID is already registered to a different
// peer: a given address and a given ID must each map to at most one
// peer at a time.
func (r *Registry) Add(id uint32, addr *net.UDPAddr) (*Peer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.byAddr[addr.String()]; ok && existing.ID != id {
		return nil, &ErrDuplicateAddr{Addr: addr.String()}
	}
	if existing, ok := r.byID[id]; ok && existing.Address.String() != addr.String() {
		return nil, &ErrDuplicateID{ID: id}
	}

	if _, known := r.byID[id]; !known && r.maxPeers > 0 && len(r.byID) >= r.maxPeers {
		return nil, &ErrRegistryFull{Max: r.maxPeers}
	}

	p := New(id, addr)
	r.byAddr[addr.String()] = p
	r.byID[id] = p
	return p, nil
}

// Remove drops a peer from the registry entirely.
func (r *Registry) Remove(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.byID[id]; ok {
		delete(r.byAddr, p.Address.String())
		delete(r.byID, id)
	}
}

// GetActive returns every peer currently in StateActive.
func (r *Registry) GetActive() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	active := make([]*Peer, 0, len(r.byID))
	for _, p := range r.byID {
		if p.GetState() == StateActive {
			active = append(active, p)
		}
	}
	return active
}

// All returns every known peer regardless of state.
func (r *Registry) All() []*Peer {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*Peer, 0, len(r.byID))
	for _, p := range r.byID {
		all = append(all, p)
	}
	return all
}

// Maintain prunes dead/timed-out peers and stale unit affinity records.
// It is intended to be called periodically (every 10s) by the
// dispatcher's maintenance task. It returns the number of peers removed.
func (r *Registry) Maintain() int {
	r.Units.Prune()

	r.mu.Lock()
	defer r.mu.Unlock()

	removed := 0
	for id, p := range r.byID {
		if p.GetState() == StateDead || p.IsTimedOut(PingTimeout) {
			delete(r.byID, id)
			delete(r.byAddr, p.Address.String())
			removed++
		}
	}
	return removed
}
