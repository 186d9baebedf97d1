package peer

import (
	"sync"
	"time"
)

// UnitTimeout is how long a unit's last-heard-on-this-peer record is kept
// before it is considered stale and pruned by maintenance.
const UnitTimeout = 3600 * time.Second

type unitKey struct {
	peerID uint32
	unitID uint32
}

// UnitTable tracks, for each (peer, subscriber) pair observed on an
// inbound DMRD frame, when that subscriber was last heard through that
// peer. It answers "which peer currently has affinity for unit X" for
// UNIT-call routing.
type UnitTable struct {
	mu      sync.RWMutex
	heard   map[unitKey]time.Time
	byUnit  map[uint32]uint32 // unitID -> most-recently-heard peerID
}

// NewUnitTable returns an empty unit affinity table.
func NewUnitTable() *UnitTable {
	return &UnitTable{
		heard:  make(map[unitKey]time.Time),
		byUnit: make(map[uint32]uint32),
	}
}

// Touch records that unitID was just heard through peerID.
func (t *UnitTable) Touch(peerID, unitID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.heard[unitKey{peerID, unitID}] = time.Now()
	t.byUnit[unitID] = peerID
}

// GetByUnit returns the peer currently believed to have affinity for
// unitID, and whether one is known.
func (t *UnitTable) GetByUnit(unitID uint32) (uint32, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	peerID, ok := t.byUnit[unitID]
	return peerID, ok
}

// Prune removes affinity records not refreshed within UnitTimeout,
// dropping the byUnit pointer if it still refers to the pruned record.
func (t *UnitTable) Prune() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	removed := 0
	now := time.Now()
	for key, last := range t.heard {
		if now.Sub(last) <= UnitTimeout {
			continue
		}
		delete(t.heard, key)
		if t.byUnit[key.unitID] == key.peerID {
			delete(t.byUnit, key.unitID)
		}
		removed++
	}
	return removed
}
