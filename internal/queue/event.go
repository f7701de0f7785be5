// Package queue carries broadcast requests over RabbitMQ so announcements
// run outside the request that asked for them.
package queue

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BroadcastQueueName is the durable queue broadcast requests are
// published to and consumed from.
const BroadcastQueueName = "broadcast.requested"

// BroadcastRequestedEvent is published when an operator asks for an
// announcement to be sent to every registered participant.
type BroadcastRequestedEvent struct {
	Text        string `json:"text"`
	RequestedBy int64  `json:"requested_by"`
	RequestedAt string `json:"requested_at"`
}

// DecodeBroadcastRequested parses a message body.  Events without text or
// requester are rejected.
func DecodeBroadcastRequested(body []byte) (BroadcastRequestedEvent, error) {
	var ev BroadcastRequestedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return ev, fmt.Errorf("unmarshal: %w", err)
	}
	if strings.TrimSpace(ev.Text) == "" {
		return ev, errors.New("empty broadcast text")
	}
	if ev.RequestedBy == 0 {
		return ev, errors.New("missing requester")
	}
	return ev, nil
}
