package config

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/icn-network/icn-node/types"
)

// Config is the complete node configuration.
type Config struct {
	// NodeType is the role this node plays: bootstrap, regular or validator.
	NodeType types.NodeType `yaml:"node_type" env:"NODE_TYPE"`

	// NodePort is the peer-to-peer websocket port.
	NodePort int `yaml:"node_port" env:"NODE_PORT"`

	// APIPort is the HTTP API port.
	APIPort int `yaml:"api_port" env:"API_PORT"`

	// BootstrapNodes are websocket URLs dialed at startup. The environment
	// form is a JSON array, e.g. ["ws://node-a:9000","ws://node-b:9000"].
	BootstrapNodes BootstrapList `yaml:"bootstrap_nodes" env:"BOOTSTRAP_NODES"`

	// CooperativeID names the cooperative this node belongs to.
	CooperativeID string `yaml:"cooperative_id" env:"COOPERATIVE_ID"`

	// CooperativeTier is the membership tier within the cooperative.
	CooperativeTier string `yaml:"cooperative_tier" env:"COOPERATIVE_TIER"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" env:"LOG_LEVEL"`
}

// BootstrapList is a list of peer websocket URLs. It accepts either a JSON
// array or a comma-separated string when set from the environment.
type BootstrapList []string

// Default returns the configuration used when nothing is provided.
func Default() *Config {
	return &Config{
		NodeType:        types.NodeTypeRegular,
		NodePort:        9000,
		APIPort:         8082,
		CooperativeID:   "icn-primary",
		CooperativeTier: "standard",
		LogLevel:        "info",
	}
}

// Validate checks invariants that would otherwise surface as late runtime
// failures.
func (c *Config) Validate() error {
	var errs []string

	if !c.NodeType.Valid() {
		errs = append(errs, fmt.Sprintf("node_type %q is not one of bootstrap, regular, validator", c.NodeType))
	}
	if c.NodePort <= 0 || c.NodePort > 65535 {
		errs = append(errs, "node_port out of range")
	}
	if c.APIPort <= 0 || c.APIPort > 65535 {
		errs = append(errs, "api_port out of range")
	}
	if c.NodePort == c.APIPort {
		errs = append(errs, "node_port and api_port must differ")
	}
	for _, addr := range c.BootstrapNodes {
		if !strings.HasPrefix(addr, "ws://") && !strings.HasPrefix(addr, "wss://") {
			errs = append(errs, fmt.Sprintf("bootstrap node %q is not a websocket URL", addr))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation errors: %s", strings.Join(errs, "; "))
	}
	return nil
}

// parseBootstrapList parses the environment form of BOOTSTRAP_NODES.
func parseBootstrapList(value string) (BootstrapList, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var list BootstrapList
		if err := json.Unmarshal([]byte(trimmed), &list); err != nil {
			return nil, fmt.Errorf("BOOTSTRAP_NODES is not a valid JSON array: %w", err)
		}
		return list, nil
	}
	parts := strings.Split(trimmed, ",")
	list := make(BootstrapList, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			list = append(list, p)
		}
	}
	return list, nil
}
