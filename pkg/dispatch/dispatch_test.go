package dispatch

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dbehnke/dmr-nexus/pkg/auth"
	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/peer"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
	"github.com/dbehnke/dmr-nexus/pkg/transport"
)

func testAddr(port int) *net.UDPAddr {
	return &net.UDPAddr{IP: net.ParseIP("192.168.1.100"), Port: port}
}

// newActivePeer drives a peer through the full handshake directly
// against the registry, bypassing the dispatcher, so dispatch tests can
// focus on post-handshake data traffic.
func newActivePeer(t *testing.T, reg *peer.Registry, ctrl *peer.Controller, id uint32, addr *net.UDPAddr) {
	t.Helper()
	ctrl.HandleLogin(addr, &protocol.LoginPacket{PeerID: id})
	p, ok := reg.GetByID(id)
	require.True(t, ok)
	salt := p.GetSalt()
	hash := protocol.CalcPasswordHash(salt[:], "")
	ctrl.HandleAuth(&protocol.AuthPacket{PeerID: id, PassHash: hash})
	ctrl.HandleConfig(&protocol.ConfigPacket{PeerID: id, Callsign: "TEST"})
	ctrl.HandlePing(&protocol.PingPacket{PeerID: id})
	require.Equal(t, peer.StateActive, p.GetState())
}

func newTestDispatcher(t *testing.T) (*Dispatcher, *peer.Registry, *transport.MemoryTransport) {
	t.Helper()
	reg := peer.NewRegistry()
	ctrl := peer.NewController(reg, auth.AllowAllPolicy{}, nil)
	tracker := call.NewTracker(reg.Units, nil)
	tr := transport.NewMemoryTransport()
	d := New(reg, ctrl, tracker, tr, nil)
	return d, reg, tr
}

// drain processes every queued inbound event on the calling goroutine,
// the way Run's consumer loop would, so a test can assert on the effect
// of a Deliver without starting Run.
func drain(d *Dispatcher) {
	for {
		select {
		case ev := <-d.inbox:
			if ev.injected != nil {
				d.dispatchData(ev.injected, nil)
				continue
			}
			d.handle(ev.data, ev.addr)
		default:
			return
		}
	}
}

func dataPacket(streamID, srcID, dstID, peerID uint32, vt protocol.VoiceType) *protocol.DataPacket {
	p := &protocol.DataPacket{
		SrcID:    srcID,
		DstID:    dstID,
		PeerID:   peerID,
		StreamID: streamID,
	}
	p.SetCallType(protocol.CallTypeGroup)
	p.SetVoiceType(vt)
	return p
}

func TestDispatcher_LoginHandshakeRepliesThroughTransport(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addr := testAddr(62031)

	login := (&protocol.LoginPacket{PeerID: 312000}).Encode()
	tr.Deliver(login, addr)
	drain(d)

	sent := tr.SentTo(addr)
	require.Len(t, sent, 1)
	require.Equal(t, protocol.MagicRPTACK, string(sent[0][:len(protocol.MagicRPTACK)]))

	_, ok := reg.GetByID(312000)
	require.True(t, ok)
}

func TestDispatcher_DataPacketFromInactivePeerIsDropped(t *testing.T) {
	d, _, tr := newTestDispatcher(t)
	addr := testAddr(62031)

	// Peer was never registered; DMRD must be dropped, not crash.
	pkt := dataPacket(1, 312001, 9, 999, protocol.VoiceHead)
	tr.Deliver(pkt.Encode(), addr)
	drain(d)

	require.Empty(t, d.Calls.Active())
}

func TestDispatcher_GroupCallBroadcastsToOtherActivePeers(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)

	addrA := testAddr(62031)
	addrB := testAddr(62032)
	newActivePeer(t, reg, d.Controller, 1, addrA)
	newActivePeer(t, reg, d.Controller, 2, addrB)
	tr.Reset()

	pkt := dataPacket(100, 312000, 9, 1, protocol.VoiceHead)
	tr.Deliver(pkt.Encode(), addrA)
	drain(d)

	sentToB := tr.SentTo(addrB)
	require.Len(t, sentToB, 1)
	require.Empty(t, tr.SentTo(addrA), "originating peer must not receive its own traffic back")

	out, err := protocol.ParseData(sentToB[0])
	require.NoError(t, err)
	require.Equal(t, uint32(2), out.PeerID, "distributed packet's peer_id must be rewritten to the recipient")

	calls := d.Calls.Active()
	require.Len(t, calls, 1)
	require.Equal(t, uint32(312000), calls[0].SrcID)
}

func TestDispatcher_UnitCallRoutesOnlyToKnownPeer(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)

	addrA := testAddr(62031)
	addrB := testAddr(62032)
	addrC := testAddr(62033)
	newActivePeer(t, reg, d.Controller, 1, addrA)
	newActivePeer(t, reg, d.Controller, 2, addrB)
	newActivePeer(t, reg, d.Controller, 3, addrC)

	// Unit 555 was last heard through peer 3.
	reg.Units.Touch(3, 555)
	tr.Reset()

	pkt := &protocol.DataPacket{SrcID: 312000, DstID: 555, PeerID: 1, StreamID: 200}
	pkt.SetCallType(protocol.CallTypeUnit)
	pkt.SetVoiceType(protocol.VoiceHead)
	tr.Deliver(pkt.Encode(), addrA)
	drain(d)

	require.Len(t, tr.SentTo(addrC), 1)
	require.Empty(t, tr.SentTo(addrB), "unit call must not broadcast to peers other than the unit's known peer")
	require.Empty(t, tr.SentTo(addrA))
}

func TestDispatcher_VoiceTerminatorEndsCall(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addrA := testAddr(62031)
	newActivePeer(t, reg, d.Controller, 1, addrA)

	head := dataPacket(300, 312000, 9, 1, protocol.VoiceHead)
	tr.Deliver(head.Encode(), addrA)
	drain(d)
	term := dataPacket(300, 312000, 9, 1, protocol.VoiceTerm)
	tr.Deliver(term.Encode(), addrA)
	drain(d)

	c, ok := d.Calls.ByCallID(300)
	require.True(t, ok)
	require.True(t, c.Ended)
}

func TestDispatcher_TalkerAliasDistributesWithoutCallBookkeeping(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addrA := testAddr(62031)
	addrB := testAddr(62032)
	newActivePeer(t, reg, d.Controller, 1, addrA)
	newActivePeer(t, reg, d.Controller, 2, addrB)
	tr.Reset()

	ta := &protocol.TalkerAliasPacket{SrcID: 312000, PeerID: 1, TAData: [4]byte{0x41, 'W', '1', 'A'}}
	tr.Deliver(ta.Encode(), addrA)
	drain(d)

	require.Len(t, tr.SentTo(addrB), 1)
	require.Empty(t, d.Calls.Active(), "DMRA must not create a tracked call")
}

func TestDispatcher_TalkerAliasFeedsMatchingActiveCallLC(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addrA := testAddr(62031)
	newActivePeer(t, reg, d.Controller, 1, addrA)

	head := dataPacket(400, 312000, 9, 1, protocol.VoiceHead)
	tr.Deliver(head.Encode(), addrA)
	drain(d)

	// Header byte 0x8A: format UTF-8 (bits 7-6), length 5 (bits 5-1).
	ta := &protocol.TalkerAliasPacket{SrcID: 312000, PeerID: 1, TAData: [4]byte{0x8A, 5, 'H', 'I'}}
	tr.Deliver(ta.Encode(), addrA)
	drain(d)

	c, ok := d.Calls.ByCallID(400)
	require.True(t, ok)
	alias, ok := c.LC.TalkerAlias()
	require.True(t, ok)
	require.NotEmpty(t, alias)
}

func TestDispatcher_InjectPacketBypassesOriginSkip(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addrA := testAddr(62031)
	newActivePeer(t, reg, d.Controller, 1, addrA)
	tr.Reset()

	pkt := dataPacket(500, 999000, 9, 1, protocol.VoiceHead)
	d.InjectPacket(pkt)

	// Drain the inbox synchronously, the way Run's consumer loop would.
	select {
	case ev := <-d.inbox:
		require.NotNil(t, ev.injected)
		d.dispatchData(ev.injected, nil)
	case <-time.After(time.Second):
		t.Fatal("injected packet never enqueued")
	}

	require.Len(t, tr.SentTo(addrA), 1, "an injected packet must still reach the only active peer, since it has no origin to skip")
}

func TestDispatcher_ShutdownBroadcastsMasterClose(t *testing.T) {
	d, reg, tr := newTestDispatcher(t)
	addrA := testAddr(62031)
	newActivePeer(t, reg, d.Controller, 1, addrA)
	tr.Reset()

	d.shutdown()

	sent := tr.SentTo(addrA)
	require.Len(t, sent, 1)
	require.Equal(t, protocol.MagicMSTCL, string(sent[0][:len(protocol.MagicMSTCL)]))
}
