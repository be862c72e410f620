package queue

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryPublishConsume(t *testing.T) {
	q := NewInMemory(4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	body, err := json.Marshal(AttendanceEvent{ID: "1", Student: "a@x.com", Status: "Pending", At: time.Now().UTC()})
	require.NoError(t, err)
	require.NoError(t, q.Publish(ctx, Message{Type: "checkin", Body: body}))

	msgs, err := q.Consume(ctx)
	require.NoError(t, err)

	select {
	case msg := <-msgs:
		assert.Equal(t, "checkin", msg.Type)
		var evt AttendanceEvent
		require.NoError(t, json.Unmarshal(msg.Body, &evt))
		assert.Equal(t, "a@x.com", evt.Student)
	case <-time.After(time.Second):
		t.Fatal("message not delivered")
	}
}

func TestInMemoryPublishFullReturnsImmediately(t *testing.T) {
	q := NewInMemory(1)
	ctx := context.Background()

	require.NoError(t, q.Publish(ctx, Message{Type: "checkin"}))

	// No consumer is draining; the second publish must not block.
	start := time.Now()
	err := q.Publish(ctx, Message{Type: "checkin"})
	assert.ErrorIs(t, err, ErrFull)
	assert.Less(t, time.Since(start), 100*time.Millisecond)
}

func TestInMemoryPublishRespectsCancellation(t *testing.T) {
	q := NewInMemory(1)
	ctx, cancel := context.WithCancel(context.Background())

	require.NoError(t, q.Publish(ctx, Message{Type: "checkin"}))
	cancel()

	// Queue is full and the context is done.
	err := q.Publish(ctx, Message{Type: "checkin"})
	assert.ErrorIs(t, err, context.Canceled)
}
