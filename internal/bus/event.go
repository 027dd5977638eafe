package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds follow a dotted namespace convention:
//
//	relay.message       inbound payload decoded off the relay socket
//	relay.connected     relay connection established
//	relay.disconnected  relay connection lost
//	message.stored      a new message was persisted
//	message.confirmed   a delivery confirmation was recorded
//	message.trimmed     retention trim deleted old messages
//	contact.online      a contact came online
//	contact.offline     a contact went offline
//	notification.info    user-facing notification text
//	outbox.queued        an outgoing payload was queued
//	outbox.sent          an outgoing payload reached the relay
//	outbox.failed        an outgoing payload could not be sent
//	relay.status_changed connection state machine transition
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
