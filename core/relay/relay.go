// Package relay consumes inbound telemetry events per transport
// connection and republishes each to a fixed receiver set on the
// external bus.
package relay

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DevBash1/trackpadal/core/bus"
	"github.com/DevBash1/trackpadal/core/metrics"
	"github.com/DevBash1/trackpadal/core/model"
	"github.com/DevBash1/trackpadal/infra/logger"
	"github.com/DevBash1/trackpadal/internal/eventbus"
)

// DeliveryPolicy names the relay's forwarding semantics.
type DeliveryPolicy int

const (
	// DeliveryBestEffort drops a sample on publish failure, never
	// retries or queues, and never blocks subsequent events on the
	// outcome of a prior publish.
	DeliveryBestEffort DeliveryPolicy = iota
)

// PlanSignal is a local-only notification for the informational plan
// events. It never reaches the external bus.
type PlanSignal struct {
	ConnID string
	Event  string
	Plan   model.PlanPayload
}

// Relay fans telemetry out to the receiver set. One instance serves all
// connections; connections share only the receiver set and the bus
// client, both read-only after startup.
type Relay struct {
	pub       bus.Publisher
	receivers []string
	policy    DeliveryPolicy
	signals   *eventbus.Bus
	sink      metrics.TelemetrySink
	log       logger.Logger

	mu    sync.Mutex
	conns int
	wg    sync.WaitGroup
}

// New creates a Relay publishing to the given static receiver set.
// signals may be nil when no local observers exist.
func New(pub bus.Publisher, receivers []string, signals *eventbus.Bus, sink metrics.TelemetrySink, log logger.Logger) *Relay {
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Relay{
		pub:       pub,
		receivers: receivers,
		policy:    DeliveryBestEffort,
		signals:   signals,
		sink:      sink,
		log:       log,
	}
}

// HandleConnect registers a new transport connection.
func (r *Relay) HandleConnect(connID string) {
	r.mu.Lock()
	r.conns++
	n := r.conns
	r.mu.Unlock()
	r.sink.RecordConnections(n)
	r.log.Infof("rider connected: %s", connID)
}

// HandleDisconnect tears down a connection. Emitter channel state lives
// on the client side and dies with the connection; nothing persists.
func (r *Relay) HandleDisconnect(connID string) {
	r.mu.Lock()
	r.conns--
	n := r.conns
	r.mu.Unlock()
	r.sink.RecordConnections(n)
	r.log.Infof("rider disconnected: %s", connID)
}

// HandleEvent dispatches one inbound transport event. Telemetry events
// are republished to the bus; plan events stay local.
func (r *Relay) HandleEvent(connID, event string, data json.RawMessage) {
	if ch, ok := model.ChannelForEvent(event); ok {
		r.relayTelemetry(connID, ch, data)
		return
	}
	switch event {
	case model.EventPlanSelected, model.EventPlanPurchased:
		var p model.PlanPayload
		if err := json.Unmarshal(data, &p); err != nil {
			r.log.Warnf("%s: bad %s payload: %v", connID, event, err)
			return
		}
		r.log.Infof("%s: %s plan=%s", connID, event, p.Plan)
		if r.signals != nil {
			r.signals.Publish(PlanSignal{ConnID: connID, Event: event, Plan: p})
		}
	default:
		r.log.Debugf("%s: ignoring event %q", connID, event)
	}
}

func (r *Relay) relayTelemetry(connID string, ch model.ChannelID, data json.RawMessage) {
	event := ch.EventName()
	payload, err := decodePayload(ch, data)
	if err != nil {
		r.log.Warnf("%s: bad %s payload: %v", connID, event, err)
		r.sink.RecordDropped(event, "decode")
		return
	}
	if len(r.receivers) == 0 {
		// A no-receivers state is not an error, publishing is skipped.
		return
	}
	body, err := json.Marshal(payload)
	if err != nil {
		r.log.Errorf("%s: marshal %s: %v", connID, event, err)
		r.sink.RecordDropped(event, "encode")
		return
	}

	// Fire and forget: the outcome is awaited only to log failures,
	// it does not gate delivery of subsequent events.
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		if err := r.pub.Publish(event, r.receivers, body); err != nil {
			r.log.Errorf("publish %s: %v", event, err)
			r.sink.RecordDropped(event, "publish")
			return
		}
		r.sink.RecordRelayed(event)
	}()
}

// decodePayload validates the wire shape of a telemetry event so the
// bus only ever sees well-formed payloads.
func decodePayload(ch model.ChannelID, data json.RawMessage) (any, error) {
	switch ch {
	case model.ChannelGPS:
		var p model.GPSPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case model.ChannelSpeed:
		var p model.SpeedPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case model.ChannelTorch:
		var p model.TorchPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case model.ChannelBattery:
		var p model.BatteryPayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case model.ChannelBatteryDistance:
		var p model.BatteryDistancePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	case model.ChannelTyrePressure:
		var p model.TyrePressurePayload
		if err := json.Unmarshal(data, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, fmt.Errorf("unknown channel %q", ch)
}

// Drain waits for in-flight publishes. Used on shutdown and in tests.
func (r *Relay) Drain() { r.wg.Wait() }
