package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishDeliversToSubscriber(t *testing.T) {
	bus := NewBus()

	var got []int
	handler := func(v int) { got = append(got, v) }
	require.NoError(t, bus.Subscribe(TopicScore, handler))

	bus.Publish(TopicScore, 700)
	bus.Publish(TopicScore, 710)

	assert.Equal(t, []int{700, 710}, got, "synchronous delivery preserves emission order")
}

func TestBus_TopicsAreIsolated(t *testing.T) {
	bus := NewBus()

	profileEvents := 0
	require.NoError(t, bus.Subscribe(TopicProfile, func(v int) { profileEvents++ }))

	bus.Publish(TopicLoans, 1)
	bus.Publish(TopicProfile, 1)

	assert.Equal(t, 1, profileEvents)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	bus := NewBus()

	calls := 0
	handler := func(v int) { calls++ }
	require.NoError(t, bus.Subscribe(TopicLoans, handler))

	bus.Publish(TopicLoans, 1)
	require.NoError(t, bus.Unsubscribe(TopicLoans, handler))
	bus.Publish(TopicLoans, 2)

	assert.Equal(t, 1, calls)
}
