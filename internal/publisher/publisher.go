// Package publisher defines the outbound event contract used to notify
// downstream consumers (the office inbox, CRM sync) about site activity.
package publisher

import "context"

// EventContactSubmitted is emitted after a contact form submission is stored.
const EventContactSubmitted = "contact.submitted"

// Event is one notification. Payload is JSON-encoded by transports that need bytes.
type Event struct {
	Type    string
	Payload any
}

// Publisher delivers events and returns the transport's message ID.
type Publisher interface {
	Publish(ctx context.Context, ev Event) (string, error)
}
