package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/dispatch"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/protocol"
)

// Config holds MQTT publisher configuration
type Config struct {
	Enabled     bool
	Broker      string
	TopicPrefix string
	ClientID    string
	Username    string
	Password    string
	QoS         byte
	Retained    bool
}

// Publisher is a dispatch.CallInterceptor that republishes every
// dispatched DMRD packet as a TrafficEvent. It also offers
// PublishPeerConnect, PublishPeerDisconnect and PublishBridgeChange for
// peer and bridge events; pkg/peer and pkg/bridge do not call them.
type Publisher struct {
	config Config
	log    *logger.Logger
	client paho.Client
}

// PeerConnectEvent represents a peer connection event
type PeerConnectEvent struct {
	PeerID    uint32    `json:"peer_id"`
	Callsign  string    `json:"callsign"`
	Timestamp time.Time `json:"timestamp"`
}

// PeerDisconnectEvent represents a peer disconnection event
type PeerDisconnectEvent struct {
	PeerID    uint32    `json:"peer_id"`
	Callsign  string    `json:"callsign"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

// TrafficEvent represents DMR traffic
type TrafficEvent struct {
	SourceID  uint32    `json:"source_id"`
	DestID    uint32    `json:"dest_id"`
	Timeslot  uint8     `json:"timeslot"`
	StreamID  uint32    `json:"stream_id"`
	Timestamp time.Time `json:"timestamp"`
}

// BridgeEvent represents a bridge state change
type BridgeEvent struct {
	BridgeName string    `json:"bridge_name"`
	TGID       uint32    `json:"tgid"`
	Timeslot   uint8     `json:"timeslot"`
	Active     bool      `json:"active"`
	Timestamp  time.Time `json:"timestamp"`
}

// New creates a new MQTT publisher. The paho client is configured but not
// connected until Start is called.
func New(config Config, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.New(logger.Config{Level: "info", Format: "text"})
	}

	p := &Publisher{
		config: config,
		log:    log.WithComponent("mqtt"),
	}

	if config.Enabled {
		opts := paho.NewClientOptions().
			AddBroker(config.Broker).
			SetClientID(config.ClientID).
			SetAutoReconnect(true)
		if config.Username != "" {
			opts.SetUsername(config.Username)
			opts.SetPassword(config.Password)
		}
		p.client = paho.NewClient(opts)
	}

	return p
}

// Start connects to the configured broker.
func (p *Publisher) Start(ctx context.Context) error {
	if !p.config.Enabled {
		p.log.Info("mqtt publisher disabled")
		return nil
	}

	p.log.Info("connecting to mqtt broker",
		logger.String("broker", p.config.Broker),
		logger.String("client_id", p.config.ClientID))

	token := p.client.Connect()
	if !token.WaitTimeout(10 * time.Second) {
		return fmt.Errorf("timed out connecting to mqtt broker %s", p.config.Broker)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connect failed: %w", err)
	}
	return nil
}

// Stop disconnects from the broker.
func (p *Publisher) Stop() {
	if !p.config.Enabled || p.client == nil {
		return
	}
	p.log.Info("disconnecting from mqtt broker")
	p.client.Disconnect(250)
}

// OnCallPacket implements dispatch.CallInterceptor, publishing one
// TrafficEvent per dispatched DMRD packet.
func (p *Publisher) OnCallPacket(c *call.Call, pkt *protocol.DataPacket, inject dispatch.Injector) {
	p.PublishTraffic(TrafficEvent{
		SourceID: pkt.SrcID,
		DestID:   pkt.DstID,
		Timeslot: uint8(pkt.Slot()),
		StreamID: pkt.StreamID,
	})
}

// PublishPeerConnect publishes a peer connection event
func (p *Publisher) PublishPeerConnect(event PeerConnectEvent) error {
	if !p.config.Enabled {
		return nil
	}
	event.Timestamp = timestampOrNow(event.Timestamp)
	return p.publish(p.formatTopic("peers/connect"), event)
}

// PublishPeerDisconnect publishes a peer disconnection event
func (p *Publisher) PublishPeerDisconnect(event PeerDisconnectEvent) error {
	if !p.config.Enabled {
		return nil
	}
	event.Timestamp = timestampOrNow(event.Timestamp)
	return p.publish(p.formatTopic("peers/disconnect"), event)
}

// PublishTraffic publishes a traffic event
func (p *Publisher) PublishTraffic(event TrafficEvent) error {
	if !p.config.Enabled {
		return nil
	}
	event.Timestamp = timestampOrNow(event.Timestamp)
	return p.publish(p.formatTopic("traffic"), event)
}

// PublishBridgeChange publishes a bridge state change event
func (p *Publisher) PublishBridgeChange(event BridgeEvent) error {
	if !p.config.Enabled {
		return nil
	}
	event.Timestamp = timestampOrNow(event.Timestamp)
	return p.publish(p.formatTopic("bridges/change"), event)
}

func timestampOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

// publish publishes an event to a topic
func (p *Publisher) publish(topic string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		p.log.Error("failed to serialize event", logger.String("topic", topic), logger.Error(err))
		return err
	}

	if p.client == nil || !p.client.IsConnected() {
		p.log.Debug("skipping publish, mqtt client not connected", logger.String("topic", topic))
		return nil
	}

	token := p.client.Publish(topic, p.config.QoS, p.config.Retained, payload)
	token.Wait()
	return token.Error()
}

// formatTopic formats a topic with the configured prefix
func (p *Publisher) formatTopic(suffix string) string {
	prefix := strings.TrimSuffix(p.config.TopicPrefix, "/")
	if prefix == "" {
		return suffix
	}
	return fmt.Sprintf("%s/%s", prefix, suffix)
}
