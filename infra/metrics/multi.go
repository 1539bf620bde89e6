package metrics

import coremetrics "github.com/DevBash1/trackpadal/core/metrics"

// MultiSink fans records out to several sinks.
type MultiSink struct {
	sinks []coremetrics.TelemetrySink
}

// NewMultiSink creates a MultiSink from the given sinks.
func NewMultiSink(sinks ...coremetrics.TelemetrySink) *MultiSink {
	return &MultiSink{sinks: sinks}
}

func (m *MultiSink) RecordRelayed(event string) {
	for _, s := range m.sinks {
		s.RecordRelayed(event)
	}
}

func (m *MultiSink) RecordDropped(event, reason string) {
	for _, s := range m.sinks {
		s.RecordDropped(event, reason)
	}
}

func (m *MultiSink) RecordConnections(active int) {
	for _, s := range m.sinks {
		s.RecordConnections(active)
	}
}
