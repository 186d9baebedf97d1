package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Global  GlobalConfig            `mapstructure:"global"`
	Server  ServerConfig            `mapstructure:"server"`
	Web     WebConfig               `mapstructure:"web"`
	Systems map[string]SystemConfig `mapstructure:"systems"`
	Bridges map[string][]BridgeRule `mapstructure:"bridges"`
	MQTT    MQTTConfig              `mapstructure:"mqtt"`
	Logging LoggingConfig           `mapstructure:"logging"`
	Metrics MetricsConfig           `mapstructure:"metrics"`
}

// GlobalConfig holds global DMR configuration. Talkgroup-level ACLs
// (TG1ACL/TG2ACL/SubACL in the teacher's config) are a Non-goal here —
// talkgroup authorization is handled by pkg/bridge's routing rules, not
// by an allow/deny list — so only the peer-ID-level registration ACL
// survives. Global UseACL switches on the reg_acl syntax check for every
// system during validation; the ACL actually enforced is each system's
// own use_acl/reg_acl, which cmd/dmr-nexusd parses into its auth policy.
type GlobalConfig struct {
	PingTime  int    `mapstructure:"ping_time"`  // Seconds between pings
	MaxMissed int    `mapstructure:"max_missed"` // Max missed pings before timeout
	UseACL    bool   `mapstructure:"use_acl"`    // Enable peer registration ACL
	RegACL    string `mapstructure:"reg_acl"`    // Peer-ID registration ACL, e.g. "PERMIT:ALL"
}

// ServerConfig holds server identification
type ServerConfig struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

// WebConfig holds web dashboard configuration
type WebConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	AuthRequired bool   `mapstructure:"auth_required"`
	Username     string `mapstructure:"username"`
	Password     string `mapstructure:"password"`
}

// SystemConfig configures the one MASTER-mode repeater system this
// process runs. The teacher's PEER/OPENBRIDGE modes (for connecting
// outward to another master) are out of scope: this repo only ever
// speaks the master side of the handshake.
type SystemConfig struct {
	Enabled bool `mapstructure:"enabled"`

	IP         string `mapstructure:"ip"`
	Port       int    `mapstructure:"port"`
	Passphrase string `mapstructure:"passphrase"`

	MaxPeers int `mapstructure:"max_peers"`

	GroupHangtime int  `mapstructure:"group_hangtime"` // Seconds
	UseACL        bool `mapstructure:"use_acl"`
	RegACL        string `mapstructure:"reg_acl"`
}

// BridgeRule represents one member of a conference bridge: a
// (talkgroup, timeslot) pair that, when active, has its traffic
// replayed to every other active member of the same named bridge.
type BridgeRule struct {
	TGID     int    `mapstructure:"tgid"`
	Timeslot int    `mapstructure:"timeslot"`
	Active   bool   `mapstructure:"active"`
	On       []int  `mapstructure:"on"`      // TGIDs that activate
	Off      []int  `mapstructure:"off"`     // TGIDs that deactivate
	Timeout  int    `mapstructure:"timeout"` // Minutes
	ToType   string `mapstructure:"to_type"` // ON or OFF
}

// MQTTConfig holds MQTT client configuration
type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	QoS         byte   `mapstructure:"qos"`
	Retained    bool   `mapstructure:"retained"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	File       string `mapstructure:"file"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
}

// MetricsConfig holds metrics configuration
type MetricsConfig struct {
	Enabled    bool             `mapstructure:"enabled"`
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
}

// PrometheusConfig holds Prometheus metrics configuration
type PrometheusConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port"`
	Path    string `mapstructure:"path"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	// Set defaults
	setDefaults()

	// Set config file
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("./configs")
		viper.AddConfigPath("/etc/dmr-nexus")
	}

	// Environment variables
	viper.SetEnvPrefix("DMR")
	viper.AutomaticEnv()

	// Read config file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found is OK, use defaults
		} else if os.IsNotExist(err) {
			// File explicitly specified but doesn't exist - that's also OK
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Unmarshal to struct
	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Validate configuration
	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Global defaults
	viper.SetDefault("global.ping_time", 5)
	viper.SetDefault("global.max_missed", 3)
	viper.SetDefault("global.use_acl", true)
	viper.SetDefault("global.reg_acl", "PERMIT:ALL")

	// Server defaults
	viper.SetDefault("server.name", "DMR-Nexus")
	viper.SetDefault("server.description", "Go DMR Server")

	// Web defaults
	viper.SetDefault("web.enabled", true)
	viper.SetDefault("web.host", "0.0.0.0")
	viper.SetDefault("web.port", 8080)
	viper.SetDefault("web.auth_required", false)

	// MQTT defaults
	viper.SetDefault("mqtt.enabled", false)
	viper.SetDefault("mqtt.topic_prefix", "dmr/nexus")
	viper.SetDefault("mqtt.client_id", "dmr-nexus")
	viper.SetDefault("mqtt.qos", 1)
	viper.SetDefault("mqtt.retained", false)

	// Logging defaults
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "text")
	viper.SetDefault("logging.max_size", 100)
	viper.SetDefault("logging.max_backups", 3)
	viper.SetDefault("logging.max_age", 7)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.prometheus.enabled", true)
	viper.SetDefault("metrics.prometheus.port", 9090)
	viper.SetDefault("metrics.prometheus.path", "/metrics")
}
