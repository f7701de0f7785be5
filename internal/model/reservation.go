package model

import "time"

// ReservationStatus is the moderation state of a reservation row.  A row
// starts as New and is resolved exactly once to Confirmed or Rejected.
type ReservationStatus string

const (
	ReservationNew       ReservationStatus = "New"
	ReservationConfirmed ReservationStatus = "Confirmed"
	ReservationRejected  ReservationStatus = "Rejected"
)

// Resolved reports whether the status is terminal.
func (s ReservationStatus) Resolved() bool {
	return s == ReservationConfirmed || s == ReservationRejected
}

// Valid reports whether s is one of the known statuses.
func (s ReservationStatus) Valid() bool {
	return s == ReservationNew || s.Resolved()
}

// Reservation records a participant's ticket pickup request.  It is
// appended to the ledger once, when the conversation reaches the time
// selection, and afterwards only its Status changes.
//
// Fields:
//  Row            – ledger row index; rows are stored in append order.
//  RequestedAt    – when the participant completed the flow.
//  FullName       – name typed by the participant.
//  Institute      – institute typed by the participant.
//  TicketCount    – number of tickets paid for (always > 0).
//  PickupDate     – selected pickup date as written in the schedule.
//  PickupLocation – selected pickup location.
//  PickupTime     – selected pickup time slot.
//  ScreenshotRef  – chat file reference of the payment screenshot.
//  ParticipantID  – chat identity of the requester.
//  Handle         – chat handle of the requester, may be empty.
//  Status         – New, Confirmed or Rejected.
type Reservation struct {
	Row            uint64            `json:"row"`             // reservations.id
	RequestedAt    time.Time         `json:"requested_at"`    // reservations.requested_at
	FullName       string            `json:"full_name"`       // reservations.full_name
	Institute      string            `json:"institute"`       // reservations.institute
	TicketCount    int               `json:"ticket_count"`    // reservations.ticket_count
	PickupDate     string            `json:"pickup_date"`     // reservations.pickup_date
	PickupLocation string            `json:"pickup_location"` // reservations.pickup_location
	PickupTime     string            `json:"pickup_time"`     // reservations.pickup_time
	ScreenshotRef  string            `json:"screenshot_ref"`  // reservations.screenshot_ref
	ParticipantID  int64             `json:"participant_id"`  // reservations.participant_id
	Handle         string            `json:"handle"`          // reservations.handle
	Status         ReservationStatus `json:"status"`          // reservations.status
}
