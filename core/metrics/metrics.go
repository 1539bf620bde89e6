package metrics

// Config holds observability settings for the relay process.
type Config struct {
	PrometheusEnabled bool   `json:"prometheus_enabled"`
	PrometheusPort    string `json:"prometheus_port"`
	InfluxEnabled     bool   `json:"influx_enabled"`
	InfluxURL         string `json:"influx_url"`
	InfluxToken       string `json:"influx_token"`
	InfluxOrg         string `json:"influx_org"`
	InfluxBucket      string `json:"influx_bucket"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.PrometheusPort == "" {
		c.PrometheusPort = ":9090"
	}
}

// TelemetrySink records relay outcomes. Implementations must be safe
// for concurrent use; publishing is fire and forget.
type TelemetrySink interface {
	// RecordRelayed counts one event handed to the bus successfully.
	RecordRelayed(event string)
	// RecordDropped counts one event lost, labeled with the reason.
	RecordDropped(event, reason string)
	// RecordConnections reports the number of active transport
	// connections.
	RecordConnections(active int)
}

// NopSink discards all records.
type NopSink struct{}

func (NopSink) RecordRelayed(string)         {}
func (NopSink) RecordDropped(string, string) {}
func (NopSink) RecordConnections(int)        {}
