package websocket

import "sync"

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends an event to every subscriber of the given owner
	Publish(ownerID int32, event Event)
}

// Ensure Hub implements EventPublisher
var _ EventPublisher = (*Hub)(nil)

// Publish implements EventPublisher by broadcasting the event to the owner's clients
func (h *Hub) Publish(ownerID int32, event Event) {
	h.Broadcast(ownerID, event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when WebSocket is disabled)
type NoOpPublisher struct{}

// Publish does nothing
func (n *NoOpPublisher) Publish(ownerID int32, event Event) {}

// MultiPublisher fans an event out to several publishers, e.g. the hub and
// the message broker.
type MultiPublisher []EventPublisher

func (m MultiPublisher) Publish(ownerID int32, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ownerID, event)
		}
	}
}

// RecordedEvent is an event captured by RecordingPublisher
type RecordedEvent struct {
	OwnerID int32
	Event   Event
}

// RecordingPublisher keeps every published event in memory
type RecordingPublisher struct {
	mu     sync.Mutex
	events []RecordedEvent
}

func (r *RecordingPublisher) Publish(ownerID int32, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, RecordedEvent{OwnerID: ownerID, Event: event})
}

// Events returns a copy of the events published so far
func (r *RecordingPublisher) Events() []RecordedEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]RecordedEvent, len(r.events))
	copy(out, r.events)
	return out
}

// Types returns the type of every published event, in order
func (r *RecordingPublisher) Types() []string {
	events := r.Events()
	types := make([]string, len(events))
	for i, e := range events {
		types[i] = e.Event.Type
	}
	return types
}
