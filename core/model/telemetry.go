package model

import "fmt"

// Tier is the subscription level of a connected rider session.
type Tier string

const (
	TierBasic Tier = "basic"
	TierPro   Tier = "pro"
)

// ParseTier validates a tier string received over HTTP or configuration.
func ParseTier(s string) (Tier, error) {
	switch Tier(s) {
	case TierBasic, TierPro:
		return Tier(s), nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Grants reports whether the tier may emit the given channel.
func (t Tier) Grants(c ChannelID) bool {
	if c.Gate() == GateAlways {
		return true
	}
	return t == TierPro
}

// TierGate is a channel's visibility rule keyed to the subscription level.
type TierGate int

const (
	// GateAlways channels are visible to every tier.
	GateAlways TierGate = iota
	// GateProOnly channels are visible to the pro tier only.
	GateProOnly
)

// ChannelID identifies one independently gated telemetry dimension.
type ChannelID string

const (
	ChannelGPS             ChannelID = "gps"
	ChannelSpeed           ChannelID = "speed"
	ChannelTorch           ChannelID = "torch"
	ChannelBattery         ChannelID = "battery"
	ChannelBatteryDistance ChannelID = "batteryDistance"
	ChannelTyrePressure    ChannelID = "tyrePressure"
)

var channelEvents = map[ChannelID]string{
	ChannelGPS:             "bike_gps",
	ChannelSpeed:           "bike_speed",
	ChannelTorch:           "bike_torch",
	ChannelBattery:         "bike_battery",
	ChannelBatteryDistance: "bike_battery_distance",
	ChannelTyrePressure:    "bike_tyre_pressure",
}

// EventName returns the transport event name carrying this channel.
func (c ChannelID) EventName() string { return channelEvents[c] }

// Gate returns the channel's tier gate. Battery and tyre metrics are a
// pro-plan feature; position, speed and torch are part of every plan.
func (c ChannelID) Gate() TierGate {
	switch c {
	case ChannelBattery, ChannelBatteryDistance, ChannelTyrePressure:
		return GateProOnly
	}
	return GateAlways
}

// ChannelForEvent maps a transport event name back to its channel.
func ChannelForEvent(event string) (ChannelID, bool) {
	for c, e := range channelEvents {
		if e == event {
			return c, true
		}
	}
	return "", false
}

// Channels lists every telemetry channel in emission order.
func Channels() []ChannelID {
	return []ChannelID{
		ChannelGPS,
		ChannelSpeed,
		ChannelTorch,
		ChannelBattery,
		ChannelBatteryDistance,
		ChannelTyrePressure,
	}
}

// Non-telemetry transport events. They are accepted on the same
// connection but stay local to the relay process.
const (
	EventPlanSelected  = "plan_selected"
	EventPlanPurchased = "plan_purchased"
)

// Snapshot is the state of the simulated bicycle after one tick. It is
// produced by the simulator and consumed by the emitter; the simulator
// keeps the only mutable copy.
type Snapshot struct {
	X                 float64
	Y                 float64
	HeadingDeg        float64
	SpeedKmh          float64
	SpeedMps          float64
	TorchOn           bool
	Running           bool
	BatteryPct        float64
	BatteryDistanceKm float64
	TyrePressurePsi   float64
}

// Transport payloads, one per channel. Field names follow the wire
// contract of the downstream receivers.

type GPSPayload struct {
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Timestamp int64   `json:"timestamp"`
}

type SpeedPayload struct {
	Speed     float64 `json:"speed"`
	Timestamp int64   `json:"timestamp"`
}

type TorchPayload struct {
	TorchOn   bool  `json:"torchOn"`
	Timestamp int64 `json:"timestamp"`
}

type BatteryPayload struct {
	Battery   float64 `json:"battery"`
	Timestamp int64   `json:"timestamp"`
}

type BatteryDistancePayload struct {
	DistanceKm float64 `json:"distanceKm"`
	Timestamp  int64   `json:"timestamp"`
}

type TyrePressurePayload struct {
	Psi       float64 `json:"psi"`
	Timestamp int64   `json:"timestamp"`
}

// PlanPayload carries the informational plan events.
type PlanPayload struct {
	Plan      string  `json:"plan"`
	Price     float64 `json:"price,omitempty"`
	UserID    string  `json:"userId,omitempty"`
	Timestamp int64   `json:"timestamp"`
}
