/*
Package events provides an in-memory event broker for Parley's pub/sub
notifications.

The events package implements a lightweight event bus for broadcasting node
events to interested subscribers: applied account and message commands, and
leadership changes. It enables loose coupling between the applier and
observers such as metrics hooks and tests.

# Architecture

	Publisher → Event Channel (buffer: 100)
	     ↓
	Broadcast Loop
	     ↓
	Subscriber Channels (buffer: 50 each)

Publishing never blocks the applier: the broker channel is buffered and a
subscriber whose buffer is full simply misses the event. Consumers that
need a complete record read the log, not the broker.

# Event Types

  - account.created / account.deleted
  - session.created (account creation and logins)
  - message.sent / message.read / message.deleted
  - leader.elected / leader.lost (local node's leadership transitions)

# Usage

	broker := events.NewBroker()
	broker.Start()
	defer broker.Stop()

	sub := broker.Subscribe()
	go func() {
		for event := range sub {
			fmt.Printf("[%s] %s\n", event.Type, event.Message)
		}
	}()

	broker.Publish(&events.Event{
		Type:    events.EventMessageSent,
		Message: "message 7 sent",
	})

# See Also

  - pkg/fsm: publishes entity events while applying commands
  - pkg/raft: leadership transitions surface as events via the node hook
*/
package events
