package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  listen: ":4100"
bus:
  broker: "tcp://localhost:1883"
  topic_prefix: "trackpedal"
receivers:
  - "recv-1"
  - "recv-2"
integration:
  api_url: "https://api.example/integrations"
  embed_url: "https://embed.example"
  basic_key: "bk"
  pro_key: "pk"
metrics:
  prometheus_enabled: true
sim:
  tier: "basic"
  initial_speed_kmh: 25
  start_paused: true
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4100", cfg.Server.Listen)
	assert.Equal(t, "tcp://localhost:1883", cfg.Bus.Broker)
	assert.Equal(t, []string{"recv-1", "recv-2"}, cfg.Receivers)
	assert.Equal(t, "https://embed.example", cfg.Integration.EmbedURL)
	assert.True(t, cfg.Metrics.PrometheusEnabled)
	assert.Equal(t, "basic", cfg.Sim.Tier)
	assert.Equal(t, 25.0, cfg.Sim.InitialSpeedKmh)
	assert.True(t, cfg.Sim.StartPaused)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
bus:
  broker: "tcp://localhost:1883"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":4000", cfg.Server.Listen)
	assert.Equal(t, "trackpedal", cfg.Bus.TopicPrefix)
	assert.Equal(t, ":9090", cfg.Metrics.PrometheusPort)
	assert.Equal(t, "pro", cfg.Sim.Tier)
	assert.Equal(t, 250, cfg.Sim.TickMs)
	assert.False(t, cfg.Sim.StartPaused, "the bicycle rides by default")
	assert.Empty(t, cfg.Receivers, "no receivers is a valid state")
}

func TestLoadEnvOverride(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
bus:
  broker: "tcp://localhost:1883"
`)
	require.NoError(t, os.Setenv("TP_BUS__BROKER", "tcp://other:1883"))
	defer func() { require.NoError(t, os.Unsetenv("TP_BUS__BROKER")) }()

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "tcp://other:1883", cfg.Bus.Broker)
}

func TestLoadJSON(t *testing.T) {
	path := writeConfig(t, "config.json", `{"bus":{"broker":"tcp://localhost:1883"},"receivers":["r1"]}`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, cfg.Receivers)
}

func TestLoadRejectsMissingBroker(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  listen: ":4000"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownTier(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
bus:
  broker: "tcp://localhost:1883"
sim:
  tier: "platinum"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsPartialIntegration(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
bus:
  broker: "tcp://localhost:1883"
integration:
  api_url: "https://api.example"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	path := writeConfig(t, "config.toml", `x = 1`)
	_, err := Load(path)
	assert.Error(t, err)
}
