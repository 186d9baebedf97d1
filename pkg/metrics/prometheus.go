package metrics

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dbehnke/dmr-nexus/pkg/logger"
)

// PrometheusConfig holds Prometheus server configuration.
type PrometheusConfig struct {
	Enabled bool
	Port    int
	Path    string
}

var (
	peersTotalDesc = prometheus.NewDesc(
		"dmr_peers_total", "Total number of peer connections", nil, nil)
	peersActiveDesc = prometheus.NewDesc(
		"dmr_peers_active", "Number of currently active peers", nil, nil)
	packetsReceivedDesc = prometheus.NewDesc(
		"dmr_packets_received_total", "Total packets received", nil, nil)
	packetsSentDesc = prometheus.NewDesc(
		"dmr_packets_sent_total", "Total packets sent", nil, nil)
	bytesReceivedDesc = prometheus.NewDesc(
		"dmr_bytes_received_total", "Total bytes received", nil, nil)
	bytesSentDesc = prometheus.NewDesc(
		"dmr_bytes_sent_total", "Total bytes sent", nil, nil)
	streamsActiveDesc = prometheus.NewDesc(
		"dmr_streams_active", "Number of active voice streams", nil, nil)
	bridgeRoutesDesc = prometheus.NewDesc(
		"dmr_bridge_routes_total", "Total bridge routing events", nil, nil)
	talkgroupsActiveDesc = prometheus.NewDesc(
		"dmr_talkgroups_active", "Number of active talkgroups", nil, nil)
)

// prometheusCollector adapts Collector, this package's plain in-memory
// stats aggregator (also consumed directly by the dashboard API), into a
// prometheus.Collector so its values can be scraped without keeping a
// second, parallel set of counters.
type prometheusCollector struct {
	c *Collector
}

func (p *prometheusCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- peersTotalDesc
	ch <- peersActiveDesc
	ch <- packetsReceivedDesc
	ch <- packetsSentDesc
	ch <- bytesReceivedDesc
	ch <- bytesSentDesc
	ch <- streamsActiveDesc
	ch <- bridgeRoutesDesc
	ch <- talkgroupsActiveDesc
}

func (p *prometheusCollector) Collect(ch chan<- prometheus.Metric) {
	ch <- prometheus.MustNewConstMetric(peersTotalDesc, prometheus.CounterValue, float64(p.c.GetTotalPeers()))
	ch <- prometheus.MustNewConstMetric(peersActiveDesc, prometheus.GaugeValue, float64(p.c.GetActivePeers()))
	ch <- prometheus.MustNewConstMetric(packetsReceivedDesc, prometheus.CounterValue, float64(p.c.GetPacketsReceived()))
	ch <- prometheus.MustNewConstMetric(packetsSentDesc, prometheus.CounterValue, float64(p.c.GetPacketsSent()))
	ch <- prometheus.MustNewConstMetric(bytesReceivedDesc, prometheus.CounterValue, float64(p.c.GetBytesReceived()))
	ch <- prometheus.MustNewConstMetric(bytesSentDesc, prometheus.CounterValue, float64(p.c.GetBytesSent()))
	ch <- prometheus.MustNewConstMetric(streamsActiveDesc, prometheus.GaugeValue, float64(p.c.GetActiveStreams()))
	ch <- prometheus.MustNewConstMetric(bridgeRoutesDesc, prometheus.CounterValue, float64(p.c.GetBridgeRoutes()))
	ch <- prometheus.MustNewConstMetric(talkgroupsActiveDesc, prometheus.GaugeValue, float64(p.c.GetActiveTalkgroups()))
}

// NewPrometheusHandler returns an http.Handler exposing collector's
// current values in Prometheus text exposition format, scoped to its own
// registry rather than the global default one so multiple servers (or
// repeated test runs) never collide on metric registration.
func NewPrometheusHandler(collector *Collector) http.Handler {
	reg := prometheus.NewRegistry()
	reg.MustRegister(&prometheusCollector{c: collector})
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// PrometheusServer is an HTTP server for Prometheus metrics.
type PrometheusServer struct {
	config    PrometheusConfig
	collector *Collector
	log       *logger.Logger
	server    *http.Server
}

// NewPrometheusServer creates a new Prometheus metrics server.
func NewPrometheusServer(config PrometheusConfig, collector *Collector, log *logger.Logger) *PrometheusServer {
	if log == nil {
		log = logger.New(logger.Config{})
	}

	return &PrometheusServer{
		config:    config,
		collector: collector,
		log:       log.WithComponent("metrics"),
	}
}

// Start starts the Prometheus metrics server and blocks until ctx is
// cancelled or the listener errors.
func (s *PrometheusServer) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("prometheus metrics server disabled")
		return nil
	}

	mux := http.NewServeMux()
	mux.Handle(s.config.Path, NewPrometheusHandler(s.collector))

	addr := fmt.Sprintf(":%d", s.config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}

	actualPort := listener.Addr().(*net.TCPAddr).Port
	s.server = &http.Server{Handler: mux}

	s.log.Info("starting prometheus metrics server",
		logger.Int("port", actualPort),
		logger.String("path", s.config.Path))

	errChan := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.log.Info("shutting down prometheus metrics server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics server shutdown error: %w", err)
		}
		return ctx.Err()
	case err := <-errChan:
		return err
	}
}

// Stop stops the Prometheus metrics server.
func (s *PrometheusServer) Stop() {
	if s.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.server.Shutdown(ctx)
	}
}
