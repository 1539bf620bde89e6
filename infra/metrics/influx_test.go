package metrics

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"

	coremetrics "github.com/DevBash1/trackpadal/core/metrics"
)

func TestInfluxFallbackOnUnhealthyInstance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(coremetrics.Config{InfluxURL: srv.URL})
	_, isNop := sink.(coremetrics.NopSink)
	assert.True(t, isNop, "unhealthy influx must fall back to the nop sink")
}

func TestInfluxSinkWritesPoints(t *testing.T) {
	var writes atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/health" {
			_, _ = w.Write([]byte(`{"status":"pass"}`))
			return
		}
		writes.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(coremetrics.Config{InfluxURL: srv.URL, InfluxOrg: "o", InfluxBucket: "b"})
	if _, isNop := sink.(coremetrics.NopSink); isNop {
		t.Fatal("healthy influx must not fall back")
	}
	sink.RecordRelayed("bike_speed")
	sink.RecordDropped("bike_gps", "publish")
	sink.RecordConnections(1)
	assert.Equal(t, int64(3), writes.Load())

	sink.(*InfluxSink).Close()
}
