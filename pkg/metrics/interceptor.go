package metrics

import (
	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/dispatch"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Interceptor is a dispatch.CallInterceptor that feeds every dispatched
// DMRD packet into a Collector, so the Prometheus exporter reflects live
// traffic without the dispatcher itself knowing about metrics.
type Interceptor struct {
	collector *Collector
}

// NewInterceptor wraps collector as a dispatch.CallInterceptor.
func NewInterceptor(collector *Collector) *Interceptor {
	return &Interceptor{collector: collector}
}

var _ dispatch.CallInterceptor = (*Interceptor)(nil)

// OnCallPacket implements dispatch.CallInterceptor.
func (i *Interceptor) OnCallPacket(c *call.Call, pkt *protocol.DataPacket, inject dispatch.Injector) {
	i.collector.PacketReceived("DMRD")
	i.collector.BytesReceived(uint64(len(pkt.FrameData)))

	switch {
	case pkt.IsVoiceHeader():
		i.collector.StreamStarted(pkt.StreamID)
	case pkt.IsVoiceTerminator():
		i.collector.StreamEnded(pkt.StreamID)
	}
}
