// Package queue defines the booking events exchanged over RabbitMQ and the
// audit consumer that records them.
package queue

import "time"

// BookingChangedQueue is the durable queue carrying BookingChangedEvent.
const BookingChangedQueue = "booking.changed"

// Actions reported in BookingChangedEvent.Action.
const (
	ActionCreated = "created"
	ActionStatus  = "status_changed"
	ActionMoved   = "moved"
)

// BookingChangedEvent is published after every booking mutation.  It
// carries enough of the booking for the audit log and for notifications
// without querying the database.
type BookingChangedEvent struct {
	BookingID     string    `json:"booking_id"`
	SourceKind    string    `json:"source_kind"`
	Action        string    `json:"action"`
	ResourceName  string    `json:"resource_name"`
	Status        string    `json:"status"`
	PrevStatus    string    `json:"prev_status,omitempty"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	PrevStart     time.Time `json:"prev_start,omitzero"`
	CustomerEmail string    `json:"customer_email"`
	ActorID       uint64    `json:"actor_id,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
