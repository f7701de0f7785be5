// Package chat holds the transport-facing types of the bot: outbound
// prompts, inbound events reduced to typed tokens, and the Telegram
// implementation of Messenger.
package chat

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Button is an inline keyboard button.  Exactly one of Data or URL is set.
type Button struct {
	Text string
	Data string
	URL  string
}

// Prompt is one outbound message.  When Photo is set the message is sent
// as a photo and Text becomes its caption.
type Prompt struct {
	Text           string
	HTML           bool
	Photo          string
	Inline         [][]Button
	Reply          [][]string
	RemoveKeyboard bool
}

// Messenger delivers prompts to chats.  Implementations translate
// transport errors into ErrBlocked and *RetryAfterError so callers can
// decide whether to retry.
type Messenger interface {
	Send(ctx context.Context, chatID int64, p Prompt) error
	Edit(ctx context.Context, chatID int64, messageID int, p Prompt) error
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// ErrBlocked means the recipient cannot be reached (blocked the bot or
// deactivated the account).  Retrying will not help.
var ErrBlocked = errors.New("chat: recipient unreachable")

// RetryAfterError is returned when the platform asks the sender to pause
// before sending again.
type RetryAfterError struct {
	Wait time.Duration
	Err  error
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("chat: rate limited, retry after %s: %v", e.Wait, e.Err)
}

func (e *RetryAfterError) Unwrap() error { return e.Err }

// Rows lays buttons out n per row.
func Rows(buttons []Button, n int) [][]Button {
	if n < 1 {
		n = 1
	}
	var rows [][]Button
	for i := 0; i < len(buttons); i += n {
		end := i + n
		if end > len(buttons) {
			end = len(buttons)
		}
		rows = append(rows, buttons[i:end])
	}
	return rows
}
