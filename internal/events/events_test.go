package events

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMakeEvent(t *testing.T) {
	raw := MakeEvent("req-1", TypeListingAdded, map[string]any{"id": "a", "score": 9.1})

	var e Event
	require.NoError(t, json.Unmarshal([]byte(raw), &e))
	assert.Equal(t, TypeListingAdded, e.Type)
	assert.Equal(t, Version, e.Version)
	assert.Equal(t, "req-1", e.RequestID)
	assert.JSONEq(t, `{"id":"a","score":9.1}`, string(e.Data))
	assert.False(t, e.At.IsZero())

	raw = MakeEvent("", TypeRunStarted, nil)
	assert.NotContains(t, raw, `"data"`)
	assert.NotContains(t, raw, `"request_id"`)
}

func TestHub_PublishSubscribe(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.Publish("x")
	assert.Equal(t, "x", <-a)
	assert.Equal(t, "x", <-b)

	h.Unsubscribe(a)
	h.Unsubscribe(a)
	_, open := <-a
	assert.False(t, open)
	assert.Equal(t, 1, h.Subscribers())

	h.Emit(TypeRunFinished, map[string]int{"added": 2})
	var e Event
	require.NoError(t, json.Unmarshal([]byte(<-b), &e))
	assert.Equal(t, TypeRunFinished, e.Type)
}

func TestHub_DropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < subscriberBuffer+5; i++ {
		h.Publish("e")
	}
	assert.Len(t, ch, subscriberBuffer)

	var nilHub *Hub
	assert.NotPanics(t, func() { nilHub.Emit(TypeRunStarted, nil) })
}
