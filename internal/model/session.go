package model

import "time"

// State is a node of the conversation graph.  The empty state means there
// is no live session for the participant.
type State string

const (
	StateNone                State = ""
	StateMainMenu            State = "main_menu"
	StatePaymentConfirmation State = "payment_confirmation"
	StatePaymentScreenshot   State = "payment_screenshot"
	StateCustomerDetails     State = "customer_details"
	StateInstitute           State = "institute"
	StateTicketQuantity      State = "ticket_quantity"
	StatePickupDate          State = "pickup_date"
	StateSelectLocation      State = "select_location"
	StateSelectTime          State = "select_time"
	StateFeedback            State = "feedback"

	// Operator states.  Having no session is the idle moderation state.
	StateAdminMenu State = "admin_menu"
	StateReviewing State = "reviewing"
)

// SessionFields is the field bag a session accumulates on its way through
// the conversation.
type SessionFields struct {
	ScreenshotRef string `json:"screenshot_ref,omitempty"`
	FullName      string `json:"full_name,omitempty"`
	Institute     string `json:"institute,omitempty"`
	TicketCount   int    `json:"ticket_count,omitempty"`
	Date          string `json:"date,omitempty"`
	Location      string `json:"location,omitempty"`
	Time          string `json:"time,omitempty"`
	Handle        string `json:"handle,omitempty"`
	ReviewRow     uint64 `json:"review_row,omitempty"`
}

// Session is the live conversation state of one participant.
type Session struct {
	ParticipantID int64         `json:"participant_id"`
	State         State         `json:"state"`
	Fields        SessionFields `json:"fields"`
	UpdatedAt     time.Time     `json:"updated_at"`
}

// NewSession returns a fresh session in the given state.
func NewSession(participantID int64, state State) *Session {
	return &Session{ParticipantID: participantID, State: state}
}
