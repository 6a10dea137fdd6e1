package model

import "time"

// BookingStatus is the lifecycle state of a booking.  Any status may be
// replaced by any other through a direct update; see TransitionPolicy in
// the service package for the optional strict rule set.
type BookingStatus string

const (
    StatusPending   BookingStatus = "pending"
    StatusConfirmed BookingStatus = "confirmed"
    StatusCancelled BookingStatus = "cancelled"
    StatusCompleted BookingStatus = "completed"
)

// Valid reports whether s is one of the known statuses.
func (s BookingStatus) Valid() bool {
    switch s {
    case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
        return true
    }
    return false
}

// SourceKind tells which table a booking was read from.  Updates must be
// written back to the same table.
type SourceKind string

const (
    SourceCharter SourceKind = "charter" // charter_bookings
    SourceRacing  SourceKind = "racing"  // racing_bookings
)

// Valid reports whether k names a known booking table.
func (k SourceKind) Valid() bool {
    return k == SourceCharter || k == SourceRacing
}

// RacingResource is the resource name given to racing bookings that were
// not assigned to a specific boat.
const RacingResource = "Racing"

// Booking is the calendar-facing shape shared by charter and racing
// bookings.  Customer fields are a snapshot taken when the booking was
// placed, not a reference to a customer record.
//
// Fields:
//  ID               – opaque unique identifier.
//  ResourceName     – yacht (or racing resource) occupied by the booking.
//  Start, End       – occupied interval, half-open [Start, End).
//  CustomerName     – contact snapshot.
//  CustomerEmail    – contact snapshot.
//  CustomerPhone    – contact snapshot.
//  ParticipantCount – number of guests on board.
//  TotalPriceCents  – total price in euro cents.
//  Status           – lifecycle state.
//  SourceKind       – table the row lives in.
type Booking struct {
    ID               string        `json:"id"`
    ResourceName     string        `json:"resource_name"`
    Start            time.Time     `json:"start"`
    End              time.Time     `json:"end"`
    CustomerName     string        `json:"customer_name"`
    CustomerEmail    string        `json:"customer_email"`
    CustomerPhone    string        `json:"customer_phone,omitempty"`
    ParticipantCount int           `json:"participant_count"`
    TotalPriceCents  int64         `json:"total_price_cents"`
    Status           BookingStatus `json:"status"`
    SourceKind       SourceKind    `json:"source_kind"`
    CreatedAt        time.Time     `json:"created_at"`
    UpdatedAt        time.Time     `json:"updated_at"`
}

// Duration returns End - Start.  Malformed bookings yield a zero or
// negative duration.
func (b Booking) Duration() time.Duration {
    return b.End.Sub(b.Start)
}
