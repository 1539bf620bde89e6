package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/DevBash1/trackpadal/core/metrics"
)

func TestPromSinkRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)

	sink.RecordRelayed("bike_speed")
	sink.RecordRelayed("bike_speed")
	sink.RecordDropped("bike_gps", "publish")
	sink.RecordConnections(3)

	ps := sink.(*PromSink)
	assert.Equal(t, 2.0, testutil.ToFloat64(ps.relayed.WithLabelValues("bike_speed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(ps.dropped.WithLabelValues("bike_gps", "publish")))
	assert.Equal(t, 3.0, testutil.ToFloat64(ps.connections))
}

func TestPromSinkDoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	require.NoError(t, err)
	_, err = NewPromSinkWithRegistry(coremetrics.Config{}, reg)
	assert.NoError(t, err, "re-registration reuses the existing collectors")
}

func TestMultiSinkFansOut(t *testing.T) {
	reg1 := prometheus.NewRegistry()
	reg2 := prometheus.NewRegistry()
	s1, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg1)
	require.NoError(t, err)
	s2, err := NewPromSinkWithRegistry(coremetrics.Config{}, reg2)
	require.NoError(t, err)

	multi := NewMultiSink(s1, s2, coremetrics.NopSink{})
	multi.RecordRelayed("bike_torch")

	assert.Equal(t, 1.0, testutil.ToFloat64(s1.(*PromSink).relayed.WithLabelValues("bike_torch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s2.(*PromSink).relayed.WithLabelValues("bike_torch")))
}
