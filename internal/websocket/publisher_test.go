package websocket

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHub_Implements_EventPublisher(t *testing.T) {
	var _ EventPublisher = (*Hub)(nil)
}

func TestHub_Publish(t *testing.T) {
	hub := NewHub()

	client := newMockClient("client-1", 1)
	hub.Register(client)

	var publisher EventPublisher = hub
	event := FinancingCreated(map[string]interface{}{"id": float64(42)})
	publisher.Publish(1, event)

	// Allow async broadcast to complete
	time.Sleep(10 * time.Millisecond)

	messages := client.GetMessages()
	assert.Len(t, messages, 1)
}

func TestNoOpPublisher_Publish(t *testing.T) {
	publisher := &NoOpPublisher{}

	assert.NotPanics(t, func() {
		publisher.Publish(1, GoalCreated(map[string]interface{}{"id": float64(1)}))
	})
}

func TestMultiPublisher_FansOut(t *testing.T) {
	first := &RecordingPublisher{}
	second := &RecordingPublisher{}
	multi := MultiPublisher{first, nil, second}

	multi.Publish(5, GoalCompleted(map[string]interface{}{"id": float64(1)}))

	assert.Equal(t, []string{"goal.completed"}, first.Types())
	assert.Equal(t, []string{"goal.completed"}, second.Types())
	assert.Equal(t, int32(5), first.Events()[0].OwnerID)
}
