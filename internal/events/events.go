// Package events carries domain change notifications out of the services.
//
// Publishing is fire-and-forget: a Publisher never returns an error to the
// caller and never blocks the request path on a slow transport. Failures are
// logged by the implementation.
package events

import (
	"context"
	"time"
)

// Resource names the kind of record an event is about.
type Resource string

const (
	ResourceAccount Resource = "account"
	ResourceProject Resource = "project"
)

// Action is what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// Event is a single domain change.
type Event struct {
	Resource   Resource  `json:"resource"`
	Action     Action    `json:"action"`
	ID         string    `json:"id"`
	OwnerID    string    `json:"ownerId"`
	OccurredAt time.Time `json:"occurredAt"`
	Data       any       `json:"data,omitempty"`
}

// Publisher delivers events to a side channel.
type Publisher interface {
	Publish(ctx context.Context, e Event)
}

// Noop discards every event.
type Noop struct{}

// Publish does nothing.
func (Noop) Publish(context.Context, Event) {}

// Multi fans an event out to several publishers in order.
type Multi []Publisher

// Publish forwards e to every publisher.
func (m Multi) Publish(ctx context.Context, e Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

// OrNoop returns p, or Noop when p is nil.
func OrNoop(p Publisher) Publisher {
	if p == nil {
		return Noop{}
	}
	return p
}
