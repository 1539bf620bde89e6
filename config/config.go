package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/DevBash1/trackpadal/core/metrics"
	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/bus"
	"github.com/DevBash1/trackpadal/infra/integrator"
)

// ServerConfig holds the relay's HTTP listener settings.
type ServerConfig struct {
	Listen string `json:"listen"`
}

// SetDefaults applies sane defaults.
func (c *ServerConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":4000"
	}
}

// SimConfig holds settings for the simulator client command. The
// bicycle rides immediately unless start_paused is set, so a defaulted
// config produces telemetry without operator input.
type SimConfig struct {
	ServerURL       string  `json:"server_url"`
	Tier            string  `json:"tier"`
	SessionID       string  `json:"session_id"`
	TickMs          int     `json:"tick_ms"`
	InitialSpeedKmh float64 `json:"initial_speed_kmh"`
	StartPaused     bool    `json:"start_paused"`
}

// SetDefaults applies sane defaults.
func (c *SimConfig) SetDefaults() {
	if c.ServerURL == "" {
		c.ServerURL = "ws://localhost:4000/ws"
	}
	if c.Tier == "" {
		c.Tier = string(model.TierPro)
	}
	if c.TickMs <= 0 {
		c.TickMs = 250
	}
	if c.InitialSpeedKmh == 0 {
		c.InitialSpeedKmh = 18
	}
}

// Validate checks mandatory fields.
func (c SimConfig) Validate() error {
	if _, err := model.ParseTier(c.Tier); err != nil {
		return err
	}
	return nil
}

// Config is the full process configuration.
type Config struct {
	Server      ServerConfig      `json:"server"`
	Bus         bus.Config        `json:"bus"`
	Receivers   []string          `json:"receivers"`
	Integration integrator.Config `json:"integration"`
	Metrics     metrics.Config    `json:"metrics"`
	Sim         SimConfig         `json:"sim"`
}

// Load reads the configuration file and applies TP_ environment
// overrides (TP_BUS__BROKER maps to bus.broker).
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	ext := strings.ToLower(filepath.Ext(path))
	var parser koanf.Parser
	switch ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, err
	}
	if err := k.Load(env.Provider("TP_", "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), "tp_")
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.Server.SetDefaults()
	cfg.Bus.SetDefaults()
	cfg.Integration.SetDefaults()
	cfg.Metrics.SetDefaults()
	cfg.Sim.SetDefaults()
	if err := cfg.Bus.Validate(); err != nil {
		return nil, err
	}
	if cfg.Integration.APIURL != "" || cfg.Integration.EmbedURL != "" {
		if err := cfg.Integration.Validate(); err != nil {
			return nil, err
		}
	}
	if err := cfg.Sim.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
