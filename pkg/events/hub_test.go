package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHubPublishSubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	assert.Equal(t, 1, h.Subscribers())

	h.Publish(PhaseChanged, PhaseEvent{Kind: "startup", From: "Idle", To: "BoxesOpened", Ts: 1})

	ev := <-ch
	assert.Equal(t, PhaseChanged, ev.Name)
	payload, err := DecodeAs[PhaseEvent](ev)
	require.NoError(t, err)
	assert.Equal(t, "BoxesOpened", payload.To)

	h.Unsubscribe(ch)
	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())
}

func TestHubDropsWhenSubscriberIsFull(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	for i := 0; i < cap(ch)+10; i++ {
		h.Publish(Sample, SampleEvent{Cycle: i})
	}
	assert.Len(t, ch, cap(ch))
}

func TestNilHubPublish(t *testing.T) {
	var h *Hub
	assert.NotPanics(t, func() { h.Publish(Sample, SampleEvent{}) })
}

func TestHubClose(t *testing.T) {
	h := NewHub()
	a, b := h.Subscribe(), h.Subscribe()
	h.Close()
	_, okA := <-a
	_, okB := <-b
	assert.False(t, okA)
	assert.False(t, okB)
}
