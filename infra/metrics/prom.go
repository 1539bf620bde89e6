package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/DevBash1/trackpadal/core/metrics"
)

// PromSink records relay outcomes in Prometheus metrics.
type PromSink struct {
	relayed     *prometheus.CounterVec
	dropped     *prometheus.CounterVec
	connections prometheus.Gauge
}

// NewPromSink registers relay metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink(cfg coremetrics.Config) (coremetrics.TelemetrySink, error) {
	return NewPromSinkWithRegistry(cfg, prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(_ coremetrics.Config, reg prometheus.Registerer) (coremetrics.TelemetrySink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	relayed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Total number of telemetry events relayed to the bus",
	}, []string{"event"})
	dropped := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_dropped_total",
		Help: "Total number of telemetry events dropped by the relay",
	}, []string{"event", "reason"})
	connections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connections",
		Help: "Number of active transport connections",
	})

	if err := reg.Register(relayed); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			relayed = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(dropped); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			dropped = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(connections); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			connections = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{relayed: relayed, dropped: dropped, connections: connections}, nil
}

// RecordRelayed increments the relayed counter for the event.
func (s *PromSink) RecordRelayed(event string) {
	s.relayed.WithLabelValues(event).Inc()
}

// RecordDropped increments the dropped counter for the event and reason.
func (s *PromSink) RecordDropped(event, reason string) {
	s.dropped.WithLabelValues(event, reason).Inc()
}

// RecordConnections sets the connection gauge.
func (s *PromSink) RecordConnections(active int) {
	s.connections.Set(float64(active))
}
