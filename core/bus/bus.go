// Package bus defines the boundary to the external publish/subscribe
// bus the relay fans telemetry out to.
package bus

import (
	"fmt"
	"sync"
)

// Publisher delivers one named event to a set of receivers. The bus
// owns its own connection lifecycle; from the relay's perspective
// delivery is at-most-once, best effort.
type Publisher interface {
	// Publish sends the payload to every receiver under the given
	// event name. The event name mirrors the transport event name
	// verbatim.
	Publish(event string, receivers []string, payload []byte) error
}

// Publication records one Publish call made against MockPublisher.
type Publication struct {
	Event     string
	Receivers []string
	Payload   []byte
}

// MockPublisher is a simple publisher used in tests.
type MockPublisher struct {
	mu         sync.Mutex
	published  []Publication
	FailEvents map[string]bool
}

// NewMockPublisher creates a new MockPublisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{FailEvents: make(map[string]bool)}
}

// Publish records the call or fails if the event is configured to fail.
func (m *MockPublisher) Publish(event string, receivers []string, payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailEvents[event] {
		return fmt.Errorf("publish %s failed", event)
	}
	m.published = append(m.published, Publication{Event: event, Receivers: receivers, Payload: payload})
	return nil
}

// Published returns a copy of the recorded publications.
func (m *MockPublisher) Published() []Publication {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Publication, len(m.published))
	copy(out, m.published)
	return out
}
