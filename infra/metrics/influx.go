package metrics

import (
	"context"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/DevBash1/trackpadal/core/metrics"
	"github.com/DevBash1/trackpadal/infra/logger"
)

// InfluxSink writes relay events to an InfluxDB instance using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(cfg coremetrics.Config) *InfluxSink {
	base := strings.TrimSuffix(cfg.InfluxURL, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, cfg.InfluxToken,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(cfg coremetrics.Config) coremetrics.TelemetrySink {
	sink := NewInfluxSink(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordRelayed writes one relayed event point.
func (s *InfluxSink) RecordRelayed(event string) {
	s.writePoint(write.NewPointWithMeasurement("relay_event").
		AddTag("event", event).
		AddTag("outcome", "relayed").
		AddField("count", 1).
		SetTime(time.Now()))
}

// RecordDropped writes one dropped event point.
func (s *InfluxSink) RecordDropped(event, reason string) {
	s.writePoint(write.NewPointWithMeasurement("relay_event").
		AddTag("event", event).
		AddTag("outcome", "dropped").
		AddTag("reason", reason).
		AddField("count", 1).
		SetTime(time.Now()))
}

// RecordConnections writes the active connection count.
func (s *InfluxSink) RecordConnections(active int) {
	s.writePoint(write.NewPointWithMeasurement("relay_connections").
		AddField("active", active).
		SetTime(time.Now()))
}

func (s *InfluxSink) writePoint(p *write.Point) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.writeAPI.WritePoint(ctx, p); err != nil {
		s.log.Errorf("influx write: %v", err)
	}
}

// Close releases the underlying client.
func (s *InfluxSink) Close() { s.client.Close() }
