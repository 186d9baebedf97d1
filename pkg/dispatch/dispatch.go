// Package dispatch wires the protocol codec, peer handshake controller,
// call tracker and datagram transport together into the single receive
// entry point described by the master's concurrency model: one
// goroutine consumes an MPSC channel of inbound datagrams so the peer
// registry and call tracker are mutated from a single execution
// context, with no locking required for correctness (the locks inside
// pkg/peer and pkg/call exist only so a read-only dashboard can take
// safe concurrent snapshots).
package dispatch

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/peer"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
	"github.com/dbehnke/dmr-nexus/pkg/transport"
)

// MaintenancePeriod is how often the dispatcher runs registry and call
// tracker housekeeping.
const MaintenancePeriod = 10 * time.Second

// inboxSize bounds how many inbound datagrams may queue ahead of the
// dispatcher's consumer goroutine before new ones are dropped.
const inboxSize = 256

// Injector lets a CallInterceptor synthesize a DMRD packet and feed it
// back into the dispatch path, the Go shape of the original app-keeper's
// inject_packet. Injected packets re-enter with no origin address, so no
// peer is skipped during distribution.
type Injector interface {
	InjectPacket(pkt *protocol.DataPacket)
}

// CallInterceptor observes every DMRD packet dispatched for a call,
// after call-tracker bookkeeping and before distribution. It may use
// inject to synthesize and route new packets (e.g. a parrot/echo app).
type CallInterceptor interface {
	OnCallPacket(c *call.Call, pkt *protocol.DataPacket, inject Injector)
}

type inboundEvent struct {
	data     []byte
	addr     *net.UDPAddr
	injected *protocol.DataPacket
}

// Dispatcher is the single receive entry point for inbound datagrams.
// It owns the peer registry, call tracker and transport; the auth
// policy inside Controller is shared read-only state.
type Dispatcher struct {
	Registry   *peer.Registry
	Controller *peer.Controller
	Calls      *call.Tracker
	Transport  transport.Transport
	Log        *logger.Logger

	mu           sync.RWMutex
	interceptors []CallInterceptor

	inbox chan inboundEvent
}

// New builds a Dispatcher over the given components and installs itself
// as the transport's receiver.
func New(registry *peer.Registry, controller *peer.Controller, calls *call.Tracker, tr transport.Transport, log *logger.Logger) *Dispatcher {
	if log == nil {
		log = logger.New(logger.Config{})
	}
	d := &Dispatcher{
		Registry:   registry,
		Controller: controller,
		Calls:      calls,
		Transport:  tr,
		Log:        log.WithComponent("dispatch"),
		inbox:      make(chan inboundEvent, inboxSize),
	}
	tr.SetReceiver(d)
	return d
}

// Register adds a CallInterceptor. Not safe to call concurrently with
// Run's dispatch of a DMRD packet; register all interceptors before
// starting Run.
func (d *Dispatcher) Register(ic CallInterceptor) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.interceptors = append(d.interceptors, ic)
}

// RecvDatagram implements transport.Receiver. It is called from the
// transport's own goroutine(s) and only ever enqueues; all real work
// happens on Run's goroutine.
func (d *Dispatcher) RecvDatagram(data []byte, addr *net.UDPAddr) {
	select {
	case d.inbox <- inboundEvent{data: data, addr: addr}:
	default:
		d.Log.Warn("inbox full, dropping datagram", logger.String("addr", addr.String()))
	}
}

// InjectPacket implements Injector: it re-enters the dispatch path for a
// synthesized DMRD packet with no origin address, so distribution skips
// no peer.
func (d *Dispatcher) InjectPacket(pkt *protocol.DataPacket) {
	select {
	case d.inbox <- inboundEvent{injected: pkt}:
	default:
		d.Log.Warn("inbox full, dropping injected packet")
	}
}

// Run is the dispatcher's single consumer goroutine. It processes
// inbound datagrams and injected packets as they arrive and runs
// maintenance every MaintenancePeriod, until ctx is cancelled, at which
// point it broadcasts MSTCL to every known peer before returning.
func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(MaintenancePeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return
		case ev := <-d.inbox:
			if ev.injected != nil {
				d.dispatchData(ev.injected, nil)
				continue
			}
			d.handle(ev.data, ev.addr)
		case <-ticker.C:
			d.maintain()
		}
	}
}

func (d *Dispatcher) maintain() {
	if removed := d.Registry.Maintain(); removed > 0 {
		d.Log.Info("maintenance removed timed out peers", logger.Int("count", removed))
	}
	d.Calls.Maintain()
}

// shutdown sends MSTCL to every known peer. The transport itself is
// released by whoever owns its lifecycle (cmd/dmr-nexusd), not here.
func (d *Dispatcher) shutdown() {
	d.Log.Info("dispatcher shutting down, closing all peers")
	for _, p := range d.Registry.All() {
		msg := (&protocol.MasterClosePacket{PeerID: p.ID}).Encode()
		if err := d.Transport.SendDatagram(msg, p.Address); err != nil {
			d.Log.Warn("failed to send shutdown close", logger.Uint32("peer_id", p.ID), logger.Error(err))
		}
	}
}

func (d *Dispatcher) handle(data []byte, addr *net.UDPAddr) {
	pkt, err := protocol.Parse(data)
	if err != nil {
		d.Log.Debug("dropping unparsable datagram", logger.String("addr", addr.String()), logger.Error(err))
		return
	}

	switch p := pkt.(type) {
	case *protocol.LoginPacket:
		d.reply(d.Controller.HandleLogin(addr, p), addr)
	case *protocol.AuthPacket:
		d.reply(d.Controller.HandleAuth(p), addr)
	case *protocol.ConfigPacket:
		d.reply(d.Controller.HandleConfig(p), addr)
	case *protocol.PingPacket:
		d.reply(d.Controller.HandlePing(p), addr)
	case *protocol.RepeaterClosePacket:
		d.Controller.HandleClose(p)
	case *protocol.BeaconPacket:
		d.Controller.Touch(p.PeerID)
	case *protocol.DataPacket:
		if !d.Controller.Touch(p.PeerID) {
			return
		}
		d.Registry.Units.Touch(p.PeerID, p.SrcID)
		d.dispatchData(p, addr)
	case *protocol.TalkerAliasPacket:
		if !d.Controller.Touch(p.PeerID) {
			return
		}
		if c, ok := d.Calls.BySrcID(p.SrcID); ok {
			c.FeedTalkerAlias(p.TAData)
		}
		d.distributeTalkerAlias(p, addr)
	}
}

func (d *Dispatcher) reply(data []byte, addr *net.UDPAddr) {
	if data == nil {
		return
	}
	if err := d.Transport.SendDatagram(data, addr); err != nil {
		d.Log.Warn("failed to send reply", logger.String("addr", addr.String()), logger.Error(err))
	}
}

// dispatchData runs call-tracker bookkeeping, application interceptors,
// and then distribution for one DMRD packet. origAddr is nil for
// injected packets.
func (d *Dispatcher) dispatchData(p *protocol.DataPacket, origAddr *net.UDPAddr) {
	c := d.Calls.Observe(p)
	feedLC(c, p)

	d.mu.RLock()
	interceptors := d.interceptors
	d.mu.RUnlock()
	for _, ic := range interceptors {
		ic.OnCallPacket(c, p, d)
	}

	d.distributeData(p, origAddr, c.RouteTo)
}

// feedLC threads one DMRD frame's payload bits through the call's LC
// decoder, purely additive end-of-call metadata.
func feedLC(c *call.Call, p *protocol.DataPacket) {
	bits := p.PayloadBits()
	switch {
	case p.IsVoiceHeader():
		c.LC.OnVoiceHeader(bits)
	case p.IsVoiceTerminator():
		c.LC.OnVoiceTerminator(bits)
	default:
		if vt := p.VoiceType(); isEmbeddedBurst(vt) {
			c.LC.OnVoiceBurst(vt, p.Vseq(), bits)
		}
	}
}

func isEmbeddedBurst(vt protocol.VoiceType) bool {
	switch vt {
	case protocol.VoiceB, protocol.VoiceC, protocol.VoiceD, protocol.VoiceE:
		return true
	default:
		return false
	}
}

// distributeData forwards p to its call's route_to targets (or every
// active peer for a broadcast/GROUP call), skipping the originating
// address to avoid loops.
func (d *Dispatcher) distributeData(p *protocol.DataPacket, origAddr *net.UDPAddr, routeTo []uint32) {
	targets := d.resolveTargets(routeTo)
	for _, target := range targets {
		if origAddr != nil && target.Address.String() == origAddr.String() {
			continue
		}
		out := *p
		out.PeerID = target.ID
		d.send(out.Encode(), target)
	}
}

// distributeTalkerAlias forwards a DMRA packet to every active peer,
// without any call-tracker bookkeeping, per the dispatch rule that DMRA
// carries no stream_id to correlate against.
func (d *Dispatcher) distributeTalkerAlias(p *protocol.TalkerAliasPacket, origAddr *net.UDPAddr) {
	for _, target := range d.Registry.GetActive() {
		if origAddr != nil && target.Address.String() == origAddr.String() {
			continue
		}
		out := *p
		out.PeerID = target.ID
		d.send(out.Encode(), target)
	}
}

func (d *Dispatcher) resolveTargets(routeTo []uint32) []*peer.Peer {
	if routeTo == nil {
		return d.Registry.GetActive()
	}
	targets := make([]*peer.Peer, 0, len(routeTo))
	for _, id := range routeTo {
		if p, ok := d.Registry.GetByID(id); ok {
			targets = append(targets, p)
		}
	}
	return targets
}

func (d *Dispatcher) send(data []byte, target *peer.Peer) {
	if err := d.Transport.SendDatagram(data, target.Address); err != nil {
		d.Log.Warn("failed to forward packet", logger.Uint32("peer_id", target.ID), logger.Error(err))
		return
	}
	target.IncrementPacketsSent()
	target.AddBytesSent(uint64(len(data)))
}
