package model

import "time"

// Participant is a chat user known to the registry.  The registry is only
// read to enumerate broadcast recipients.
type Participant struct {
	ID        int64     // participants.id (chat user id)
	Name      string    // participants.full_name
	Handle    string    // participants.handle, may be empty
	CreatedAt time.Time // participants.created_at
}

// Mention returns "@handle" when a handle is known, otherwise the name.
func (p Participant) Mention() string {
	if p.Handle != "" {
		return "@" + p.Handle
	}
	return p.Name
}
