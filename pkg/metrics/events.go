package metrics

import (
	"github.com/parleychat/parley/pkg/events"
)

// EventHook subscribes to the broker and counts events by type.
type EventHook struct {
	broker *events.Broker
	sub    events.Subscriber
	doneCh chan struct{}
}

// NewEventHook builds a hook over the broker. Call Start to begin consuming.
func NewEventHook(broker *events.Broker) *EventHook {
	return &EventHook{
		broker: broker,
		doneCh: make(chan struct{}),
	}
}

// Start subscribes and consumes events until Stop.
func (h *EventHook) Start() {
	h.sub = h.broker.Subscribe()
	go h.run()
}

// Stop unsubscribes and waits for the consumer to drain.
func (h *EventHook) Stop() {
	h.broker.Unsubscribe(h.sub)
	<-h.doneCh
}

func (h *EventHook) run() {
	defer close(h.doneCh)
	for event := range h.sub {
		EventsTotal.WithLabelValues(string(event.Type)).Inc()
	}
}
