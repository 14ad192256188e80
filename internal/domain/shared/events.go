package shared

import "time"

// DomainEvent represents an event that has occurred in the domain
type DomainEvent interface {
	EventName() string
	OccurredAt() time.Time
}

// ChangeOp is the kind of mutation a change event describes
type ChangeOp string

const (
	OpCreated ChangeOp = "created"
	OpUpdated ChangeOp = "updated"
	OpDeleted ChangeOp = "deleted"
)

// EventBase carries the timestamp shared by all events
type EventBase struct {
	At time.Time
}

// NewEventBase stamps an event with the current time
func NewEventBase() EventBase {
	return EventBase{At: time.Now()}
}

// OccurredAt implements DomainEvent
func (e EventBase) OccurredAt() time.Time {
	return e.At
}
