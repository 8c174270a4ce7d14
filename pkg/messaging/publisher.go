package messaging

import (
	"context"
)

const (
	ToysSubjects      = "toys.>"
	ToyCreatedSubject = "toys.created"
	ToyUpdatedSubject = "toys.updated"
	ToyDeletedSubject = "toys.deleted"
)

type Event interface {
	Subject() string
	Payload() ([]byte, error)
}

type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
