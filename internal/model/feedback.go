package model

import "time"

// Feedback status values.  A failed delivery is stored as
// FeedbackFailedPrefix followed by a short reason.
const (
	FeedbackNew          = "New"
	FeedbackReplied      = "Replied"
	FeedbackFailedPrefix = "Failed: "
)

// Feedback is a free-text message left by a participant.  Operators answer
// it with the reply command, which fills Status and Reply once.
type Feedback struct {
	Row           uint64    // feedback.id
	CreatedAt     time.Time // feedback.created_at
	Handle        string    // feedback.handle
	Message       string    // feedback.message
	Status        string    // feedback.status
	Reply         string    // feedback.reply
	ParticipantID int64     // feedback.participant_id
}
