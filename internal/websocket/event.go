package websocket

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType represents what happened to an entity
type EventType string

const (
	EventTypeCreated         EventType = "created"
	EventTypeUpdated         EventType = "updated"
	EventTypeDeleted         EventType = "deleted"
	EventTypePaymentApplied  EventType = "payment_applied"
	EventTypePaymentReversed EventType = "payment_reversed"
	EventTypeCompleted       EventType = "completed"
	EventTypeCancelled       EventType = "cancelled"
	EventTypeInitialized     EventType = "initialized"
)

// EntityType represents the type of entity the event is about
type EntityType string

const (
	EntityTypeTransaction EntityType = "transaction"
	EntityTypeFinancing   EntityType = "financing"
	EntityTypeGoal        EntityType = "goal"
	EntityTypeCategory    EntityType = "category"
)

// Event represents a message sent to clients
// Format: { type, entity, payload, timestamp }
type Event struct {
	Type      string      `json:"type"`      // Combined type e.g. "financing.payment_applied"
	Entity    EntityType  `json:"entity"`    // Entity type e.g. "financing"
	Payload   interface{} `json:"payload"`   // Full entity data
	Timestamp time.Time   `json:"timestamp"` // Event timestamp
}

// NewEvent creates a new event with the given type, entity, and payload
func NewEvent(eventType EventType, entityType EntityType, payload interface{}) Event {
	return Event{
		Type:      fmt.Sprintf("%s.%s", entityType, eventType),
		Entity:    entityType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON serializes the event to JSON bytes
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// PaymentEventPayload is sent with financing payment events so clients can
// refresh both the payment list and the financing balance.
type PaymentEventPayload struct {
	Financing interface{} `json:"financing"`
	Payment   interface{} `json:"payment"`
}

// DeletedPayload identifies a removed entity
type DeletedPayload struct {
	ID int32 `json:"id"`
}

func TransactionCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeTransaction, payload)
}

func TransactionUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeTransaction, payload)
}

func TransactionDeleted(id int32) Event {
	return NewEvent(EventTypeDeleted, EntityTypeTransaction, DeletedPayload{ID: id})
}

func FinancingCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeFinancing, payload)
}

func FinancingUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeFinancing, payload)
}

func FinancingDeleted(id int32) Event {
	return NewEvent(EventTypeDeleted, EntityTypeFinancing, DeletedPayload{ID: id})
}

// FinancingPaymentApplied creates a financing.payment_applied event
func FinancingPaymentApplied(financing, payment interface{}) Event {
	return NewEvent(EventTypePaymentApplied, EntityTypeFinancing, PaymentEventPayload{Financing: financing, Payment: payment})
}

// FinancingPaymentReversed creates a financing.payment_reversed event
func FinancingPaymentReversed(financing, payment interface{}) Event {
	return NewEvent(EventTypePaymentReversed, EntityTypeFinancing, PaymentEventPayload{Financing: financing, Payment: payment})
}

func GoalCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeGoal, payload)
}

func GoalUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeGoal, payload)
}

func GoalCompleted(payload interface{}) Event {
	return NewEvent(EventTypeCompleted, EntityTypeGoal, payload)
}

func GoalCancelled(payload interface{}) Event {
	return NewEvent(EventTypeCancelled, EntityTypeGoal, payload)
}

func GoalDeleted(id int32) Event {
	return NewEvent(EventTypeDeleted, EntityTypeGoal, DeletedPayload{ID: id})
}

func CategoryCreated(payload interface{}) Event {
	return NewEvent(EventTypeCreated, EntityTypeCategory, payload)
}

func CategoryUpdated(payload interface{}) Event {
	return NewEvent(EventTypeUpdated, EntityTypeCategory, payload)
}

func CategoryDeleted(id int32) Event {
	return NewEvent(EventTypeDeleted, EntityTypeCategory, DeletedPayload{ID: id})
}

// CategoriesInitialized carries the seeded default categories
func CategoriesInitialized(payload interface{}) Event {
	return NewEvent(EventTypeInitialized, EntityTypeCategory, payload)
}
