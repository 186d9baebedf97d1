// Package call tracks active and recently-ended voice streams, keyed by
// the DMRD stream_id, and resolves where each stream's packets should be
// routed.
package call

import (
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Timing constants governing call lifecycle and retention, matching the
// original master's call.py.
const (
	// DeadTimeout is how long a call may go without a packet before
	// maintenance closes it by timeout.
	DeadTimeout = 5 * time.Second
	// CleanTimeout is how long an ended call remains in the active set
	// before maintenance drops it.
	CleanTimeout = 60 * time.Second
	// CleanLogTimeout is how long an ended call remains in the log set
	// (for history/dashboard queries) before maintenance drops it too.
	CleanLogTimeout = 6 * time.Hour
)

// Call is one voice transmission, identified by its stream_id.
type Call struct {
	CallID   uint32
	SrcID    uint32
	DstID    uint32
	PeerID   uint32
	CallType protocol.CallType

	StartTime      time.Time
	LastPacketTime time.Time
	EndTime        time.Time
	Ended          bool

	Packets int

	// RouteTo holds the peer IDs this call's packets are forwarded to.
	// A nil slice means broadcast to every active peer; it is fixed at
	// call creation and never updated mid-call.
	RouteTo []uint32

	// LC accumulates Link Control metadata (caller/callee, GPS, talker
	// alias) decoded from this stream's voice frames, for end-of-call
	// logging. Purely additive: it never affects routing.
	LC *protocol.CallLCDecoder

	// taFragment counts DMRA packets fed into LC via FeedTalkerAlias.
	// DMRA carries no fragment index of its own; fragments are assumed
	// to arrive in order starting with the header.
	taFragment int
}

// NewCall starts tracking a new stream.
func NewCall(callID, srcID, dstID, peerID uint32, callType protocol.CallType, routeTo []uint32) *Call {
	now := time.Now()
	return &Call{
		CallID:         callID,
		SrcID:          srcID,
		DstID:          dstID,
		PeerID:         peerID,
		CallType:       callType,
		StartTime:      now,
		LastPacketTime: now,
		RouteTo:        routeTo,
		LC:             protocol.NewCallLCDecoder(),
	}
}

// PacketReceived records one more packet on this call and advances its
// last-activity time. Retransmitted sequence numbers are not detected;
// every DMRD packet counts, including duplicates.
func (c *Call) PacketReceived() {
	c.LastPacketTime = time.Now()
	c.Packets++
}

// End marks the call finished. byTimeout ends it at its last packet time
// (maintenance closing a call that went silent); otherwise it ends now
// (an explicit voice terminator arrived).
func (c *Call) End(byTimeout bool) {
	if byTimeout {
		c.EndTime = c.LastPacketTime
	} else {
		c.EndTime = time.Now()
	}
	c.Ended = true
}

// FeedTalkerAlias feeds one DMRA packet's payload into this call's LC
// decoder, assigning it the next fragment slot (header, then three
// continuations) in arrival order.
func (c *Call) FeedTalkerAlias(data [4]byte) {
	flco := protocol.FLCOTalkerAlias + protocol.FLCO(c.taFragment%4)
	c.LC.OnTalkerAlias(flco, data)
	c.taFragment++
}

// Duration returns how long the call has run so far, or its final
// duration once ended.
func (c *Call) Duration() time.Duration {
	if !c.Ended {
		return time.Since(c.StartTime)
	}
	return c.EndTime.Sub(c.StartTime)
}

// isDead reports whether an unended call has gone quiet longer than
// DeadTimeout, and should be closed by maintenance.
func (c *Call) isDead(now time.Time) bool {
	return !c.Ended && now.Sub(c.LastPacketTime) >= DeadTimeout
}

// toBeCleaned reports whether an ended call has sat long enough to be
// dropped from the active set.
func (c *Call) toBeCleaned(now time.Time) bool {
	return c.Ended && now.Sub(c.EndTime) >= CleanTimeout
}

// toBeCleanedFromLog reports whether an ended call has sat long enough to
// be dropped from the log set.
func (c *Call) toBeCleanedFromLog(now time.Time) bool {
	return c.Ended && now.Sub(c.EndTime) >= CleanLogTimeout
}
