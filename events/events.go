// Package events defines the outbound event payloads consumed by the
// notification, invoice and housekeeping collaborators, and the publisher
// used to emit them.
package events

import (
	"time"

	"pms-backend/models"
)

// Queue names, one durable queue per event kind.
const (
	QueueReservationCreated  = "reservation.created"
	QueueGroupBookingCreated = "group_booking.created"
	QueueCheckedIn           = "reservation.checked_in"
	QueueCheckedOut          = "reservation.checked_out"
	QueueCancelled           = "reservation.cancelled"
)

// Event is any payload that knows which queue it belongs on.
type Event interface {
	Queue() string
}

// ReservationCreated carries the full reservation snapshot so consumers can
// notify or invoice without querying the primary database.
type ReservationCreated struct {
	Reservation models.Reservation `json:"reservation"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func (ReservationCreated) Queue() string { return QueueReservationCreated }

// GroupBookingCreated is emitted once per group with the full line list.
type GroupBookingCreated struct {
	GroupID        string               `json:"group_id"`
	GroupReference string               `json:"group_reference"`
	Reservations   []models.Reservation `json:"reservations"`
	OccurredAt     time.Time            `json:"occurred_at"`
}

func (GroupBookingCreated) Queue() string { return QueueGroupBookingCreated }

type CheckedIn struct {
	Reservation models.Reservation `json:"reservation"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func (CheckedIn) Queue() string { return QueueCheckedIn }

type CheckedOut struct {
	Reservation models.Reservation `json:"reservation"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func (CheckedOut) Queue() string { return QueueCheckedOut }

type Cancelled struct {
	Reservation models.Reservation `json:"reservation"`
	OccurredAt  time.Time          `json:"occurred_at"`
}

func (Cancelled) Queue() string { return QueueCancelled }
