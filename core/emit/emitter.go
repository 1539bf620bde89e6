// Package emit converts the continuous simulator snapshot stream into a
// minimal, de-duplicated event stream per telemetry channel.
package emit

import (
	"math"
	"time"

	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/logger"
)

// Sender forwards a named telemetry event on the realtime transport.
type Sender interface {
	Send(event string, payload any) error
}

// gpsKey is the joint comparison key for the composite gps channel. A
// 0.01 m change in either axis is a change.
type gpsKey struct {
	x, y float64
}

// Emitter quantizes each metric to its channel precision and emits a
// sample only when the quantized value differs from the last emitted
// one. Channel state lives for one transport connection and is
// discarded with it.
type Emitter struct {
	tier   model.Tier
	sender Sender
	log    logger.Logger
	now    func() time.Time

	lastGPS      *gpsKey
	lastSpeed    *float64
	lastTorch    *bool
	lastBattery  *float64
	lastDistance *float64
	lastPressure *float64
}

// New creates an Emitter for one connection at the given tier.
func New(tier model.Tier, sender Sender, log logger.Logger) *Emitter {
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Emitter{tier: tier, sender: sender, log: log, now: time.Now}
}

// OnSnapshot runs every channel's change gate against the snapshot. It
// is the simulator's notify callback.
func (e *Emitter) OnSnapshot(s model.Snapshot) {
	ts := e.now().UnixMilli()
	e.emitGPS(s, ts)
	e.emitSpeed(s, ts)
	e.emitTorch(s, ts)
	e.emitBattery(s, ts)
	e.emitBatteryDistance(s, ts)
	e.emitTyrePressure(s, ts)
}

func (e *Emitter) emitGPS(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelGPS) {
		return
	}
	if !isFinite(s.X) || !isFinite(s.Y) {
		// Dropped silently; the previous key stays so a later valid
		// sample is still compared correctly.
		return
	}
	key := gpsKey{x: round(s.X, 2), y: round(s.Y, 2)}
	if e.lastGPS != nil && *e.lastGPS == key {
		return
	}
	e.lastGPS = &key
	e.send(model.ChannelGPS, model.GPSPayload{X: key.x, Y: key.y, Timestamp: ts})
}

func (e *Emitter) emitSpeed(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelSpeed) {
		return
	}
	if !isFinite(s.SpeedKmh) {
		return
	}
	speed := round(s.SpeedKmh, 1)
	if e.lastSpeed != nil && *e.lastSpeed == speed {
		return
	}
	e.lastSpeed = &speed
	e.send(model.ChannelSpeed, model.SpeedPayload{Speed: speed, Timestamp: ts})
}

func (e *Emitter) emitTorch(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelTorch) {
		return
	}
	on := s.TorchOn
	if e.lastTorch != nil && *e.lastTorch == on {
		return
	}
	e.lastTorch = &on
	e.send(model.ChannelTorch, model.TorchPayload{TorchOn: on, Timestamp: ts})
}

func (e *Emitter) emitBattery(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelBattery) {
		return
	}
	if !isFinite(s.BatteryPct) {
		return
	}
	battery := round(s.BatteryPct, 1)
	if e.lastBattery != nil && *e.lastBattery == battery {
		return
	}
	e.lastBattery = &battery
	e.send(model.ChannelBattery, model.BatteryPayload{Battery: battery, Timestamp: ts})
}

func (e *Emitter) emitBatteryDistance(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelBatteryDistance) {
		return
	}
	if !isFinite(s.BatteryDistanceKm) {
		return
	}
	km := round(s.BatteryDistanceKm, 2)
	if e.lastDistance != nil && *e.lastDistance == km {
		return
	}
	e.lastDistance = &km
	e.send(model.ChannelBatteryDistance, model.BatteryDistancePayload{DistanceKm: km, Timestamp: ts})
}

func (e *Emitter) emitTyrePressure(s model.Snapshot, ts int64) {
	if !e.tier.Grants(model.ChannelTyrePressure) {
		return
	}
	if !isFinite(s.TyrePressurePsi) {
		return
	}
	psi := round(s.TyrePressurePsi, 1)
	if e.lastPressure != nil && *e.lastPressure == psi {
		return
	}
	e.lastPressure = &psi
	e.send(model.ChannelTyrePressure, model.TyrePressurePayload{Psi: psi, Timestamp: ts})
}

// send is best effort: a transport failure is logged and the sample is
// gone, never retried.
func (e *Emitter) send(c model.ChannelID, payload any) {
	if err := e.sender.Send(c.EventName(), payload); err != nil {
		e.log.Errorf("send %s: %v", c.EventName(), err)
	}
}

// round quantizes v to the given number of decimal digits.
func round(v float64, digits int) float64 {
	p := math.Pow10(digits)
	return math.Round(v*p) / p
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
