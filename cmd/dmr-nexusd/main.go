package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/dbehnke/dmr-nexus/pkg/auth"
	"github.com/dbehnke/dmr-nexus/pkg/bridge"
	"github.com/dbehnke/dmr-nexus/pkg/call"
	"github.com/dbehnke/dmr-nexus/pkg/config"
	"github.com/dbehnke/dmr-nexus/pkg/database"
	"github.com/dbehnke/dmr-nexus/pkg/dispatch"
	"github.com/dbehnke/dmr-nexus/pkg/logger"
	"github.com/dbehnke/dmr-nexus/pkg/metrics"
	"github.com/dbehnke/dmr-nexus/pkg/mqtt"
	"github.com/dbehnke/dmr-nexus/pkg/peer"
	"github.com/dbehnke/dmr-nexus/pkg/transport"
	"github.com/dbehnke/dmr-nexus/pkg/web"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildTime = "unknown"
)

func main() {
	configFile := flag.String("config", "config.yaml", "Path to configuration file")
	showVersion := flag.Bool("version", false, "Show version information")
	validateOnly := flag.Bool("validate", false, "Validate configuration and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("DMR-Nexus %s\n", version)
		fmt.Printf("Git Commit: %s\n", gitCommit)
		fmt.Printf("Built: %s\n", buildTime)
		os.Exit(0)
	}

	log := logger.New(logger.Config{Level: "info", Format: "text"})
	log.Info("Starting DMR-Nexus",
		logger.String("version", version),
		logger.String("commit", gitCommit),
		logger.String("build_time", buildTime))

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Error("Failed to load configuration", logger.Error(err))
		os.Exit(1)
	}

	if *validateOnly {
		log.Info("Configuration is valid")
		os.Exit(0)
	}

	log.Info("Configuration loaded successfully", logger.String("config_file", *configFile))

	log = logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	log.Debug("Debug logging enabled")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	var wg sync.WaitGroup

	metricsCollector := metrics.NewCollector()

	db, err := database.NewDB(database.Config{Path: "data/dmr-nexus.db"}, log.WithComponent("database"))
	if err != nil {
		log.Error("Failed to initialize database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	peerAuthRepo := database.NewPeerAuthRepository(db.GetDB())
	log.Info("Database initialized")

	if cfg.Metrics.Enabled && cfg.Metrics.Prometheus.Enabled {
		wg.Add(1)
		go func() {
			defer wg.Done()
			metricsServer := metrics.NewPrometheusServer(
				metrics.PrometheusConfig{
					Enabled: cfg.Metrics.Prometheus.Enabled,
					Port:    cfg.Metrics.Prometheus.Port,
					Path:    cfg.Metrics.Prometheus.Path,
				},
				metricsCollector,
				log.WithComponent("metrics"),
			)
			if err := metricsServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Prometheus metrics server error", logger.Error(err))
			}
		}()
		log.Info("Prometheus metrics server started",
			logger.Int("port", cfg.Metrics.Prometheus.Port),
			logger.String("path", cfg.Metrics.Prometheus.Path))
	}

	var mqttPublisher *mqtt.Publisher
	if cfg.MQTT.Enabled {
		mqttPublisher = mqtt.New(
			mqtt.Config{
				Enabled:     cfg.MQTT.Enabled,
				Broker:      cfg.MQTT.Broker,
				TopicPrefix: cfg.MQTT.TopicPrefix,
				ClientID:    cfg.MQTT.ClientID,
				Username:    cfg.MQTT.Username,
				Password:    cfg.MQTT.Password,
				QoS:         cfg.MQTT.QoS,
				Retained:    cfg.MQTT.Retained,
			},
			log.WithComponent("mqtt"),
		)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := mqttPublisher.Start(ctx); err != nil && err != context.Canceled {
				log.Error("MQTT publisher error", logger.Error(err))
			}
		}()
		log.Info("MQTT publisher started",
			logger.String("broker", cfg.MQTT.Broker),
			logger.String("topic_prefix", cfg.MQTT.TopicPrefix))
	}

	// Pick the one enabled MASTER-mode system this process runs.
	var sysName string
	var sysCfg config.SystemConfig
	for name, s := range cfg.Systems {
		if s.Enabled {
			sysName, sysCfg = name, s
			break
		}
	}
	if sysName == "" {
		log.Error("No enabled system configured, nothing to do")
		os.Exit(1)
	}

	policy, err := buildPolicy(sysCfg, peerAuthRepo)
	if err != nil {
		log.Error("Failed to build auth policy", logger.Error(err))
		os.Exit(1)
	}

	registry := peer.NewRegistryWithLimit(sysCfg.MaxPeers)
	controller := peer.NewController(registry, policy, log.WithComponent("peer"))
	calls := call.NewTracker(registry.Units, log.WithComponent("call"))

	tr, err := transport.NewUDPTransport(sysCfg.Port, log.WithComponent("transport"))
	if err != nil {
		log.Error("Failed to bind UDP transport", logger.Error(err), logger.Int("port", sysCfg.Port))
		os.Exit(1)
	}

	disp := dispatch.New(registry, controller, calls, tr, log.WithComponent("dispatch"))

	router := bridge.NewRouter(log.WithComponent("bridge"))
	for name, rules := range cfg.Bridges {
		rs := bridge.NewBridgeRuleSet(name)
		for _, r := range rules {
			rs.AddRule(&bridge.BridgeRule{
				TGID:     r.TGID,
				Timeslot: r.Timeslot,
				Active:   r.Active,
				On:       r.On,
				Off:      r.Off,
				Timeout:  r.Timeout,
			})
		}
		router.AddBridge(rs)
	}
	disp.Register(router)
	disp.Register(metrics.NewInterceptor(metricsCollector))
	if mqttPublisher != nil {
		disp.Register(mqttPublisher)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		disp.Run(ctx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := tr.Run(ctx); err != nil && err != context.Canceled {
			log.Error("UDP transport error", logger.Error(err))
		}
	}()
	log.Info("MASTER mode server started", logger.String("system", sysName), logger.Int("port", sysCfg.Port))

	var webServer *web.Server
	if cfg.Web.Enabled {
		webServer = web.NewServer(cfg.Web, log.WithComponent("web")).
			WithPeerRegistry(registry).
			WithRouter(router).
			WithTracker(calls)

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := webServer.Start(ctx); err != nil && err != context.Canceled {
				log.Error("Web server error", logger.Error(err))
			}
		}()
		log.Info("Web server started",
			logger.String("host", cfg.Web.Host),
			logger.Int("port", cfg.Web.Port))
	}

	log.Info("DMR-Nexus initialized", logger.String("server_name", cfg.Server.Name))

	sig := <-sigChan
	log.Info("Received shutdown signal", logger.String("signal", sig.String()))

	cancel()
	if mqttPublisher != nil {
		mqttPublisher.Stop()
	}
	if err := tr.Close(); err != nil {
		log.Warn("Error closing UDP transport", logger.Error(err))
	}

	wg.Wait()
	log.Info("DMR-Nexus stopped")
}

// buildPolicy constructs the auth.Policy for sysCfg: the registration
// ACL (reg_acl) gates which peer IDs may register at all, the system's
// shared passphrase is the default credential every permitted peer
// authenticates with, and any per-peer entry persisted in the database
// (set through an admin tool against peerAuthRepo) overrides the shared
// passphrase for that one peer ID.
func buildPolicy(sysCfg config.SystemConfig, repo *database.PeerAuthRepository) (auth.Policy, error) {
	overrides, err := auth.LoadFrom(repo.AuthStore())
	if err != nil {
		return nil, fmt.Errorf("loading peer auth store: %w", err)
	}

	acl := auth.ACL{}
	if sysCfg.UseACL && sysCfg.RegACL != "" {
		parsed, err := auth.ParseACL(sysCfg.RegACL)
		if err != nil {
			return nil, fmt.Errorf("parsing reg_acl %q: %w", sysCfg.RegACL, err)
		}
		acl = *parsed
	} else {
		parsed, _ := auth.ParseACL("PERMIT:ALL")
		acl = *parsed
	}

	return &systemPolicy{acl: &acl, overrides: overrides, shared: sysCfg.Passphrase}, nil
}

// systemPolicy implements auth.Policy and auth.PasswordSource: acl gates
// which peer IDs may register, overrides holds any per-peer password
// that supersedes the system's shared passphrase.
type systemPolicy struct {
	acl       *auth.ACL
	overrides *auth.ListPolicy
	shared    string
}

func (p *systemPolicy) AllowPeerID(peerID uint32) bool {
	return p.acl.Check(peerID)
}

func (p *systemPolicy) CheckPassword(peerID uint32, password string) bool {
	if want, ok := p.overrides.Password(peerID); ok {
		return want == "" || want == password
	}
	return password == p.shared
}

func (p *systemPolicy) Password(peerID uint32) (string, bool) {
	if want, ok := p.overrides.Password(peerID); ok {
		return want, true
	}
	return p.shared, true
}
