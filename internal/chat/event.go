package chat

import "github.com/iliyamo/ticket-bot/internal/model"

// Event is one inbound interaction ready for the state machine.
type Event struct {
	ChatID     int64
	Sender     model.Participant
	MessageID  int    // message that carried the pressed button; 0 for typed input
	CallbackID string // non-empty for button presses
	Token      Token
}

// FromButton reports whether the event came from an inline button.
func (e Event) FromButton() bool { return e.CallbackID != "" }
