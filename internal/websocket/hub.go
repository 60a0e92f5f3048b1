package websocket

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client
var ErrClientClosed = errors.New("client is closed")

// Subscriber is a connection that receives the events of one owner
type Subscriber interface {
	ID() string
	OwnerID() int32
	Send(data []byte) error
	Close() error
}

// Hub keeps the live connections of every owner. It is safe for concurrent use.
type Hub struct {
	owners map[int32]map[string]Subscriber
	mu     sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		owners: make(map[int32]map[string]Subscriber),
	}
}

// Register adds a subscriber under its owner
func (h *Hub) Register(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ownerID := sub.OwnerID()
	if h.owners[ownerID] == nil {
		h.owners[ownerID] = make(map[string]Subscriber)
	}
	h.owners[ownerID][sub.ID()] = sub

	log.Debug().
		Int32("owner_id", ownerID).
		Str("client_id", sub.ID()).
		Msg("WebSocket client registered")
}

// Unregister removes a subscriber; unknown subscribers are ignored
func (h *Hub) Unregister(sub Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ownerID := sub.OwnerID()
	subs, ok := h.owners[ownerID]
	if !ok {
		return
	}
	if _, exists := subs[sub.ID()]; !exists {
		return
	}

	delete(subs, sub.ID())
	if len(subs) == 0 {
		delete(h.owners, ownerID)
	}

	log.Debug().
		Int32("owner_id", ownerID).
		Str("client_id", sub.ID()).
		Msg("WebSocket client unregistered")
}

// Broadcast sends an event to every connection of the owner
func (h *Hub) Broadcast(ownerID int32, event Event) {
	data, err := event.ToJSON()
	if err != nil {
		log.Error().
			Err(err).
			Int32("owner_id", ownerID).
			Str("event_type", event.Type).
			Msg("Failed to serialize event")
		return
	}

	targets := h.snapshot(ownerID)
	if len(targets) == 0 {
		return
	}

	// Slow clients must not stall the publishing request
	for _, sub := range targets {
		go func(s Subscriber) {
			if err := s.Send(data); err != nil {
				log.Warn().
					Err(err).
					Int32("owner_id", ownerID).
					Str("client_id", s.ID()).
					Msg("Failed to send to client")
			}
		}(sub)
	}

	log.Debug().
		Int32("owner_id", ownerID).
		Str("event_type", event.Type).
		Int("client_count", len(targets)).
		Msg("Broadcast event")
}

func (h *Hub) snapshot(ownerID int32) []Subscriber {
	h.mu.RLock()
	defer h.mu.RUnlock()

	subs := h.owners[ownerID]
	out := make([]Subscriber, 0, len(subs))
	for _, s := range subs {
		out = append(out, s)
	}
	return out
}

// ClientCount returns the number of connections of an owner
func (h *Hub) ClientCount(ownerID int32) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.owners[ownerID])
}

// TotalClientCount returns the number of connections across all owners
func (h *Hub) TotalClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.owners {
		total += len(subs)
	}
	return total
}

// Shutdown closes every connection and empties the hub
func (h *Hub) Shutdown() {
	h.mu.Lock()
	owners := h.owners
	h.owners = make(map[int32]map[string]Subscriber)
	h.mu.Unlock()

	for _, subs := range owners {
		for _, s := range subs {
			if err := s.Close(); err != nil {
				log.Debug().Err(err).Str("client_id", s.ID()).Msg("Close on shutdown")
			}
		}
	}
}
