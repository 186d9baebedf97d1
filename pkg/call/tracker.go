package call

import (
	"sync"
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// UnitLocator resolves the peer currently associated with a unit ID, the
// way pkg/peer.UnitTable does. It is a narrow interface so this package
// does not need to import pkg/peer directly.
type UnitLocator interface {
	GetByUnit(unitID uint32) (peerID uint32, ok bool)
}

// Tracker correlates DMRD traffic by stream_id into Calls and resolves
// each call's routing target. It is intended to be mutated from a single
// goroutine (the dispatcher); active/log are plain maps guarded by mu so
// a read-only dashboard snapshot can still be taken safely.
type Tracker struct {
	mu     sync.RWMutex
	active map[uint32]*Call
	log    map[uint32]*Call
	units  UnitLocator
	lg     *logger.Logger
}

// NewTracker returns an empty call tracker. units is used to resolve
// UNIT call routing; log may be nil.
func NewTracker(units UnitLocator, log *logger.Logger) *Tracker {
	return &Tracker{
		active: make(map[uint32]*Call),
		log:    make(map[uint32]*Call),
		units:  units,
		lg:     log,
	}
}

// ByCallID returns the tracked call for a stream_id, if any.
func (t *Tracker) ByCallID(callID uint32) (*Call, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.active[callID]
	return c, ok
}

// BySrcID returns the active call currently carrying traffic from srcID,
// if any. DMRA talker-alias packets have no stream_id of their own, so
// this is how they are correlated to the call they ride alongside.
func (t *Tracker) BySrcID(srcID uint32) (*Call, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, c := range t.active {
		if c.SrcID == srcID {
			return c, true
		}
	}
	return nil, false
}

// Observe records one DMRD packet against its stream_id, creating a new
// call on first sight. It returns the call so the caller can run
// distribution and LC bookkeeping against it.
func (t *Tracker) Observe(p *protocol.DataPacket) *Call {
	t.mu.Lock()
	call, ok := t.active[p.StreamID]
	if !ok {
		call = NewCall(p.StreamID, p.SrcID, p.DstID, p.PeerID, p.CallType(), t.resolveRouteTo(p))
		t.active[p.StreamID] = call
		t.log[p.StreamID] = call
		if t.lg != nil {
			t.lg.Info("voice call start",
				logger.Uint32("call_id", call.CallID),
				logger.Uint32("src_id", call.SrcID),
				logger.Uint32("dst_id", call.DstID),
				logger.String("call_type", call.CallType.String()))
		}
	}
	t.mu.Unlock()

	call.PacketReceived()
	if p.IsVoiceTerminator() {
		call.End(false)
		if t.lg != nil {
			t.lg.Info("voice call end",
				logger.Uint32("call_id", call.CallID),
				logger.Duration("duration", call.Duration()),
				logger.Int("packets", call.Packets))
		}
	}
	return call
}

// resolveRouteTo implements the routing-target decision at call creation:
// GROUP calls always broadcast; UNIT calls route to the unit's most
// recently heard peer if known, else fall back to broadcast until the
// destination unit checks in.
func (t *Tracker) resolveRouteTo(p *protocol.DataPacket) []uint32 {
	if p.CallType() != protocol.CallTypeUnit || t.units == nil {
		return nil
	}
	peerID, ok := t.units.GetByUnit(p.DstID)
	if !ok {
		return nil
	}
	return []uint32{peerID}
}

// Maintain closes dead calls by timeout and prunes the active/log sets of
// calls that have aged out. It is intended to be called periodically
// (every 10s) by the dispatcher's maintenance task.
func (t *Tracker) Maintain() {
	now := time.Now()

	t.mu.Lock()
	defer t.mu.Unlock()

	for id, c := range t.active {
		if c.isDead(now) {
			c.End(true)
			if t.lg != nil {
				t.lg.Debug("voice call timed out",
					logger.Uint32("call_id", c.CallID),
					logger.Duration("duration", c.Duration()))
			}
		}
		if c.toBeCleaned(now) {
			delete(t.active, id)
		}
	}

	for id, c := range t.log {
		if c.toBeCleanedFromLog(now) {
			delete(t.log, id)
		}
	}
}

// Active returns every call currently in the active set.
func (t *Tracker) Active() []*Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Call, 0, len(t.active))
	for _, c := range t.active {
		out = append(out, c)
	}
	return out
}

// Log returns every call retained in the log set.
func (t *Tracker) Log() []*Call {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*Call, 0, len(t.log))
	for _, c := range t.log {
		out = append(out, c)
	}
	return out
}
