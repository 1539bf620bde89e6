package emit

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DevBash1/trackpadal/core/model"
)

type sentEvent struct {
	Event   string
	Payload any
}

type captureSender struct {
	events []sentEvent
	err    error
}

func (c *captureSender) Send(event string, payload any) error {
	if c.err != nil {
		return c.err
	}
	c.events = append(c.events, sentEvent{Event: event, Payload: payload})
	return nil
}

func (c *captureSender) names() []string {
	var out []string
	for _, ev := range c.events {
		out = append(out, ev.Event)
	}
	return out
}

func baseSnapshot() model.Snapshot {
	return model.Snapshot{
		X: 1.234, Y: -2.346,
		SpeedKmh:          18.04,
		BatteryPct:        99.96,
		BatteryDistanceKm: 0.005,
		TyrePressurePsi:   85,
		Running:           true,
	}
}

func TestFirstSnapshotEmitsAllChannels(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	e.OnSnapshot(baseSnapshot())

	require.Len(t, sender.events, 6)
	assert.Equal(t, []string{
		"bike_gps", "bike_speed", "bike_torch",
		"bike_battery", "bike_battery_distance", "bike_tyre_pressure",
	}, sender.names())

	gps := sender.events[0].Payload.(model.GPSPayload)
	assert.Equal(t, 1.23, gps.X)
	assert.Equal(t, -2.35, gps.Y)
	speed := sender.events[1].Payload.(model.SpeedPayload)
	assert.Equal(t, 18.0, speed.Speed)
	battery := sender.events[3].Payload.(model.BatteryPayload)
	assert.Equal(t, 100.0, battery.Battery, "99.96 rounds up at 1 digit")
}

func TestUnchangedSnapshotEmitsNothing(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	n := len(sender.events)

	e.OnSnapshot(snap)
	assert.Len(t, sender.events, n, "equal quantized values must be suppressed")
}

func TestSubQuantumChangeSuppressed(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	n := len(sender.events)

	snap.X += 0.001 // below the 2-digit quantum
	snap.SpeedKmh += 0.01
	e.OnSnapshot(snap)
	assert.Len(t, sender.events, n)
}

func TestGPSAxesComparedJointly(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	sender.events = nil

	snap.Y += 0.01
	e.OnSnapshot(snap)
	require.Equal(t, []string{"bike_gps"}, sender.names(), "one axis moving emits the pair")
}

func TestBasicTierGatesProChannels(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierBasic, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)

	assert.Equal(t, []string{"bike_gps", "bike_speed", "bike_torch"}, sender.names())

	// Keep the pro metrics changing; they must stay silent.
	for i := 0; i < 5; i++ {
		snap.BatteryPct -= 1
		snap.BatteryDistanceKm += 1
		snap.TyrePressurePsi += 2
		e.OnSnapshot(snap)
	}
	assert.Equal(t, []string{"bike_gps", "bike_speed", "bike_torch"}, sender.names())
}

func TestTorchToggleEmits(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierBasic, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	sender.events = nil

	snap.TorchOn = true
	e.OnSnapshot(snap)
	require.Equal(t, []string{"bike_torch"}, sender.names())
	assert.True(t, sender.events[0].Payload.(model.TorchPayload).TorchOn)
}

func TestNonFiniteSampleDropped(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	sender.events = nil

	bad := snap
	bad.X = math.NaN()
	bad.SpeedKmh = math.Inf(1)
	e.OnSnapshot(bad)
	assert.Empty(t, sender.events, "non-finite values are dropped silently")

	// The channel state was left untouched, so the old value still
	// compares equal and a genuinely new one still emits.
	e.OnSnapshot(snap)
	assert.Empty(t, sender.events)
	snap.X += 0.5
	e.OnSnapshot(snap)
	assert.Equal(t, []string{"bike_gps"}, sender.names())
}

func TestLastEmittedMatchesPayload(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	snap := baseSnapshot()
	e.OnSnapshot(snap)
	snap.SpeedKmh = 23.26
	e.OnSnapshot(snap)

	var last model.SpeedPayload
	for _, ev := range sender.events {
		if p, ok := ev.Payload.(model.SpeedPayload); ok {
			last = p
		}
	}
	require.NotNil(t, e.lastSpeed)
	assert.Equal(t, last.Speed, *e.lastSpeed)
}

func TestSendFailureIsSwallowed(t *testing.T) {
	sender := &captureSender{err: errors.New("transport down")}
	e := New(model.TierPro, sender, nil)
	e.OnSnapshot(baseSnapshot()) // must not panic
	assert.Empty(t, sender.events)
}

func TestTimestampsAssignedAtEmission(t *testing.T) {
	sender := &captureSender{}
	e := New(model.TierPro, sender, nil)
	now := time.UnixMilli(1700000000000)
	e.now = func() time.Time { return now }

	e.OnSnapshot(baseSnapshot())
	gps := sender.events[0].Payload.(model.GPSPayload)
	assert.Equal(t, int64(1700000000000), gps.Timestamp)
}

func TestRound(t *testing.T) {
	assert.Equal(t, 1.23, round(1.234, 2))
	assert.Equal(t, 1.24, round(1.236, 2))
	assert.Equal(t, -2.35, round(-2.346, 2))
	assert.Equal(t, 18.0, round(18.04, 1))
}
