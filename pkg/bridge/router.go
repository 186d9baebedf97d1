package bridge

import (
	"sync"
	"time"

	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/dispatch"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Router is a dispatch.CallInterceptor that conferences talkgroups
// together inside one master: a packet landing on a bridged TGID/timeslot
// is cloned and replayed, via dispatch.Injector, with the destination ID
// rewritten to every other member of the same conference. Unlike the
// cross-system router this package started life as, there is only ever
// one system here (the master itself), so the unit of configuration is a
// named conference (BridgeRuleSet) whose members are TGID/timeslot pairs
// rather than remote systems.
type Router struct {
	bridges map[string]*BridgeRuleSet
	streams *StreamTracker
	timers  *TimerManager
	log     *logger.Logger

	mu sync.RWMutex
}

// NewRouter creates a new router instance.
func NewRouter(log *logger.Logger) *Router {
	if log == nil {
		log = logger.New(logger.Config{})
	}
	return &Router{
		bridges: make(map[string]*BridgeRuleSet),
		streams: NewStreamTracker(),
		timers:  NewTimerManager(),
		log:     log.WithComponent("bridge"),
	}
}

// AddBridge adds a named conference to the router.
func (r *Router) AddBridge(bridge *BridgeRuleSet) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bridges[bridge.Name] = bridge
}

// GetBridge retrieves a bridge by name.
func (r *Router) GetBridge(name string) *BridgeRuleSet {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.bridges[name]
}

// GetActiveBridges returns every bridge with at least one active rule.
func (r *Router) GetActiveBridges() []*BridgeRuleSet {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*BridgeRuleSet, 0)
	for _, bridge := range r.bridges {
		snap := bridge.Snapshot()
		for _, rule := range snap.Rules {
			if rule.Active {
				result = append(result, bridge)
				break
			}
		}
	}
	return result
}

// OnCallPacket implements dispatch.CallInterceptor. On every voice
// terminator it also runs bridge rule activation/deactivation, since the
// terminator is when a repeater's PTT release is known.
func (r *Router) OnCallPacket(c *call.Call, pkt *protocol.DataPacket, inject dispatch.Injector) {
	if pkt.IsVoiceTerminator() {
		r.mu.RLock()
		for _, bridge := range r.bridges {
			bridge.ProcessActivation(pkt.DstID)
			bridge.ProcessDeactivation(pkt.DstID)
		}
		r.mu.RUnlock()
		r.streams.EndStream(pkt.StreamID)
		return
	}

	if !r.streams.TrackStream(pkt.StreamID, conferenceKey(pkt.DstID, pkt.Slot())) {
		return
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, bridge := range r.bridges {
		if !bridge.hasMatch(pkt.DstID, int(pkt.Slot())) {
			continue
		}
		for _, other := range bridge.Rules {
			if other.TGID == int(pkt.DstID) && other.Timeslot == int(pkt.Slot()) {
				continue
			}
			if !other.IsActive() {
				continue
			}
			out := *pkt
			out.DstID = uint32(other.TGID)
			inject.InjectPacket(&out)
		}
	}
}

// conferenceKey identifies a (tgid, timeslot) pair for stream dedup
// purposes, distinct from the generic rule key used by TimerManager.
func conferenceKey(tgid uint32, ts protocol.Slot) string {
	return (&BridgeRule{System: "tg", TGID: int(tgid), Timeslot: int(ts)}).key()
}

// ProcessActivation runs TGID activation against every bridge, returning
// the rules each one activated.
func (r *Router) ProcessActivation(tgid uint32) map[string][]*BridgeRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]*BridgeRule)
	for name, bridge := range r.bridges {
		if activated := bridge.ProcessActivation(tgid); len(activated) > 0 {
			result[name] = activated
		}
	}
	return result
}

// ProcessDeactivation runs TGID deactivation against every bridge,
// returning the rules each one deactivated.
func (r *Router) ProcessDeactivation(tgid uint32) map[string][]*BridgeRule {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string][]*BridgeRule)
	for name, bridge := range r.bridges {
		if deactivated := bridge.ProcessDeactivation(tgid); len(deactivated) > 0 {
			result[name] = deactivated
		}
	}
	return result
}

// CleanupStreams removes old streams from the dedup tracker. Intended to
// be called periodically alongside the dispatcher's own maintenance.
func (r *Router) CleanupStreams(maxAge time.Duration) {
	r.streams.CleanupOldStreams(maxAge)
}
