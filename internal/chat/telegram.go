package chat

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// Command describes an entry of the chat client's command menu.
type Command struct {
	Name        string
	Description string
}

// Telegram implements Messenger on top of the Bot API.  The underlying
// client has no context support, so contexts are only checked before each
// call.
type Telegram struct {
	api *tgbotapi.BotAPI
}

// NewTelegram authenticates with the Bot API using token.
func NewTelegram(token string) (*Telegram, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect: %w", err)
	}
	log.Printf("telegram: authorized as @%s", api.Self.UserName)
	return &Telegram{api: api}, nil
}

// Send delivers p as a new message.
func (t *Telegram) Send(ctx context.Context, chatID int64, p Prompt) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var c tgbotapi.Chattable
	if p.Photo != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(p.Photo))
		photo.Caption = p.Text
		photo.ParseMode = parseMode(p)
		photo.ReplyMarkup = replyMarkup(p)
		c = photo
	} else {
		msg := tgbotapi.NewMessage(chatID, p.Text)
		msg.ParseMode = parseMode(p)
		msg.ReplyMarkup = replyMarkup(p)
		c = msg
	}
	_, err := t.api.Send(c)
	return classify(err)
}

// Edit replaces the text and inline keyboard of an existing message.
// Photos and reply keyboards cannot be attached by an edit, so such
// prompts are sent as new messages instead.
func (t *Telegram) Edit(ctx context.Context, chatID int64, messageID int, p Prompt) error {
	if p.Photo != "" || len(p.Reply) > 0 || p.RemoveKeyboard || messageID == 0 {
		return t.Send(ctx, chatID, p)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	edit := tgbotapi.NewEditMessageText(chatID, messageID, p.Text)
	edit.ParseMode = parseMode(p)
	if len(p.Inline) > 0 {
		markup := inlineMarkup(p.Inline)
		edit.ReplyMarkup = &markup
	}
	_, err := t.api.Send(edit)
	return classify(err)
}

// AnswerCallback stops the loading indicator of a pressed button.  A
// non-empty text is shown to the user as a short notice.
func (t *Telegram) AnswerCallback(ctx context.Context, callbackID, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := t.api.Request(tgbotapi.NewCallback(callbackID, text))
	return classify(err)
}

// RegisterCommands publishes the participant command menu globally and the
// operator menu (participant commands included) to each operator chat.
func (t *Telegram) RegisterCommands(participant, operator []Command, operatorIDs []int64) error {
	if _, err := t.api.Request(tgbotapi.NewSetMyCommands(botCommands(participant)...)); err != nil {
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	all := botCommands(append(append([]Command{}, operator...), participant...))
	for _, id := range operatorIDs {
		scope := tgbotapi.NewBotCommandScopeChat(id)
		if _, err := t.api.Request(tgbotapi.NewSetMyCommandsWithScope(scope, all...)); err != nil {
			return fmt.Errorf("telegram: set operator commands for %d: %w", id, err)
		}
		log.Printf("telegram: operator commands set for %d", id)
	}
	return nil
}

// SetWebhook points the Bot API at url.
func (t *Telegram) SetWebhook(url string) error {
	wh, err := tgbotapi.NewWebhook(url)
	if err != nil {
		return fmt.Errorf("telegram: webhook url: %w", err)
	}
	if _, err := t.api.Request(wh); err != nil {
		return fmt.Errorf("telegram: set webhook: %w", err)
	}
	return nil
}

// Poll removes any webhook and long-polls for updates until ctx is done.
func (t *Telegram) Poll(ctx context.Context) tgbotapi.UpdatesChannel {
	if _, err := t.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.Printf("telegram: delete webhook: %v", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		t.api.StopReceivingUpdates()
	}()
	return updates
}

// EventFromUpdate reduces an update to an Event.  Updates the bot does not
// react to (edited messages, stickers, channel posts) report false.
func EventFromUpdate(u tgbotapi.Update) (Event, bool) {
	switch {
	case u.CallbackQuery != nil:
		cq := u.CallbackQuery
		if cq.From == nil {
			return Event{}, false
		}
		ev := Event{ChatID: cq.From.ID, Sender: participantOf(cq.From), CallbackID: cq.ID}
		if cq.Message != nil && cq.Message.Chat != nil {
			ev.ChatID = cq.Message.Chat.ID
			ev.MessageID = cq.Message.MessageID
		}
		tok, err := ParseCallback(cq.Data)
		if err != nil {
			tok = Token{Kind: KindInvalid, Text: err.Error()}
		}
		ev.Token = tok
		return ev, true
	case u.Message != nil:
		m := u.Message
		if m.From == nil || m.Chat == nil {
			return Event{}, false
		}
		ev := Event{ChatID: m.Chat.ID, Sender: participantOf(m.From)}
		switch {
		case len(m.Photo) > 0:
			// the last size is the largest
			ev.Token = Token{Kind: KindPhoto, FileID: m.Photo[len(m.Photo)-1].FileID, Text: m.Caption}
		case m.Text != "":
			ev.Token = ParseText(m.Text)
		default:
			return Event{}, false
		}
		return ev, true
	}
	return Event{}, false
}

func participantOf(u *tgbotapi.User) model.Participant {
	return model.Participant{
		ID:     u.ID,
		Name:   strings.TrimSpace(u.FirstName + " " + u.LastName),
		Handle: u.UserName,
	}
}

// classify maps Bot API failures onto ErrBlocked and *RetryAfterError.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == http.StatusForbidden:
			return fmt.Errorf("%w: %s", ErrBlocked, apiErr.Message)
		case apiErr.Code == http.StatusTooManyRequests || apiErr.RetryAfter > 0:
			return &RetryAfterError{Wait: time.Duration(apiErr.RetryAfter) * time.Second, Err: err}
		}
	}
	return err
}

func parseMode(p Prompt) string {
	if p.HTML {
		return tgbotapi.ModeHTML
	}
	return ""
}

func replyMarkup(p Prompt) interface{} {
	switch {
	case len(p.Inline) > 0:
		return inlineMarkup(p.Inline)
	case len(p.Reply) > 0:
		rows := make([][]tgbotapi.KeyboardButton, 0, len(p.Reply))
		for _, r := range p.Reply {
			row := make([]tgbotapi.KeyboardButton, 0, len(r))
			for _, label := range r {
				row = append(row, tgbotapi.NewKeyboardButton(label))
			}
			rows = append(rows, row)
		}
		kb := tgbotapi.NewReplyKeyboard(rows...)
		kb.ResizeKeyboard = true
		return kb
	case p.RemoveKeyboard:
		return tgbotapi.NewRemoveKeyboard(false)
	}
	return nil
}

func inlineMarkup(layout [][]Button) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(layout))
	for _, r := range layout {
		row := make([]tgbotapi.InlineKeyboardButton, 0, len(r))
		for _, b := range r {
			if b.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(b.Text, b.URL))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(b.Text, b.Data))
			}
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func botCommands(cmds []Command) []tgbotapi.BotCommand {
	out := make([]tgbotapi.BotCommand, 0, len(cmds))
	for _, c := range cmds {
		out = append(out, tgbotapi.BotCommand{Command: c.Name, Description: c.Description})
	}
	return out
}
