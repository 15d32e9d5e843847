// Package events publishes entity updates to subscribers.
package events

import (
	evbus "github.com/asaskevich/EventBus"
)

// Topics, one per cached entity. Subscribers receive the new value on
// every update, in emission order, until they unsubscribe.
const (
	TopicUser    = "entity:user"
	TopicProfile = "entity:profile"
	TopicScore   = "entity:score"
	TopicLoans   = "entity:loans"
	TopicReports = "entity:reports"
	TopicMetrics = "entity:metrics"
)

// Bus wraps a synchronous event bus scoped to one sync session.
// Synchronous delivery preserves emission order for all subscribers.
type Bus struct {
	bus evbus.Bus
}

// NewBus creates an empty bus.
func NewBus() *Bus {
	return &Bus{bus: evbus.New()}
}

// Publish delivers payload to every subscriber of topic.
func (b *Bus) Publish(topic string, payload interface{}) {
	b.bus.Publish(topic, payload)
}

// Subscribe registers fn for topic. fn must accept a single argument of the
// published payload type.
func (b *Bus) Subscribe(topic string, fn interface{}) error {
	return b.bus.Subscribe(topic, fn)
}

// Unsubscribe removes a previously subscribed fn from topic.
func (b *Bus) Unsubscribe(topic string, fn interface{}) error {
	return b.bus.Unsubscribe(topic, fn)
}
