package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevBash1/trackpadal/core/relay"
	"github.com/DevBash1/trackpadal/infra/bus"
	"github.com/DevBash1/trackpadal/internal/eventbus"
)

func TestServiceCloseReleasesSink(t *testing.T) {
	closed := false
	svc := &Service{
		Relay:     relay.New(nil, nil, nil, nil, nil),
		client:    &bus.PahoClient{},
		signals:   eventbus.New(),
		closeSink: func() { closed = true },
	}

	require.NoError(t, svc.Close())
	assert.True(t, closed, "influx sink must be closed on shutdown")
}

func TestServiceCloseWithoutSink(t *testing.T) {
	svc := &Service{
		Relay:   relay.New(nil, nil, nil, nil, nil),
		client:  &bus.PahoClient{},
		signals: eventbus.New(),
	}

	require.NoError(t, svc.Close())
}
