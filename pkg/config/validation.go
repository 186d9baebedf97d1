package config

import (
	"fmt"
	"strings"
)

// validate validates the configuration
func validate(cfg *Config) error {
	// Validate global config
	if cfg.Global.PingTime <= 0 {
		return fmt.Errorf("global.ping_time must be positive")
	}
	if cfg.Global.MaxMissed <= 0 {
		return fmt.Errorf("global.max_missed must be positive")
	}

	// Validate web config
	if cfg.Web.Enabled {
		if cfg.Web.Port <= 0 || cfg.Web.Port > 65535 {
			return fmt.Errorf("web.port must be between 1 and 65535")
		}
	}

	// Validate MQTT config
	if cfg.MQTT.Enabled {
		if cfg.MQTT.Broker == "" {
			return fmt.Errorf("mqtt.broker is required when mqtt is enabled")
		}
	}

	// Validate systems. This repo only ever runs MASTER mode, so there is
	// no mode field left to check.
	for name, sys := range cfg.Systems {
		if !sys.Enabled {
			continue
		}

		if sys.Port <= 0 || sys.Port > 65535 {
			return fmt.Errorf("system %s: port must be between 1 and 65535", name)
		}
		if sys.Passphrase == "" {
			return fmt.Errorf("system %s: passphrase is required", name)
		}
		if sys.MaxPeers <= 0 {
			return fmt.Errorf("system %s: max_peers must be positive", name)
		}

		if sys.UseACL || cfg.Global.UseACL {
			if sys.RegACL != "" && !strings.HasPrefix(sys.RegACL, "PERMIT:") && !strings.HasPrefix(sys.RegACL, "DENY:") {
				return fmt.Errorf("system %s: reg_acl must start with PERMIT: or DENY:", name)
			}
		}
	}

	// Validate bridge rules
	for bridgeName, rules := range cfg.Bridges {
		for i, rule := range rules {
			if rule.TGID <= 0 {
				return fmt.Errorf("bridge %s rule %d: tgid must be positive", bridgeName, i)
			}
			if rule.Timeslot != 1 && rule.Timeslot != 2 {
				return fmt.Errorf("bridge %s rule %d: timeslot must be 1 or 2", bridgeName, i)
			}
			if rule.ToType != "" && rule.ToType != "ON" && rule.ToType != "OFF" {
				return fmt.Errorf("bridge %s rule %d: to_type must be ON or OFF", bridgeName, i)
			}
		}
	}

	return nil
}
