package handler

import (
	"context"
	"fmt"
	"html"
	"log"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/service"
	"github.com/iliyamo/ticket-bot/internal/utils"
)

// ParticipantCommands and OperatorCommands populate the command menus.
var (
	ParticipantCommands = []chat.Command{
		{Name: "start", Description: "Start over"},
		{Name: "myid", Description: "Show my chat id"},
	}
	OperatorCommands = []chat.Command{
		{Name: "start", Description: "Start over"},
		{Name: "myid", Description: "Show my chat id"},
		{Name: "admin", Description: "Review reservations"},
		{Name: "broadcast", Description: "Send an announcement to everyone"},
		{Name: "reply", Description: "Answer feedback: /reply @username text"},
		{Name: "token", Description: "Issue an ops API token"},
	}
)

func (b *Bot) myID(ctx context.Context, ev chat.Event, _ *model.Session) error {
	b.send(ctx, ev.ChatID, plain(fmt.Sprintf("Your ID: %d", ev.Sender.ID)))
	return nil
}

// broadcast queues an announcement; the report arrives when it is done.
func (b *Bot) broadcast(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	if ev.Token.Text == "" {
		b.send(ctx, ev.ChatID, plain(textBroadcastUsage))
		return nil
	}
	if err := b.Broadcasts.Schedule(ctx, ev.Token.Text, ev.Sender.ID); err != nil {
		b.send(ctx, ev.ChatID, service.BroadcastFailedPrompt(err))
		return err
	}
	b.send(ctx, ev.ChatID, plain(textBroadcastQueue))
	return nil
}

// reply answers the most recent feedback left by a handle.  The row is
// marked Replied before delivery and overwritten with a Failed status when
// the participant cannot be reached.
func (b *Bot) reply(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	handle, body := ev.Token.Handle, ev.Token.Text
	if handle == "" || body == "" {
		b.send(ctx, ev.ChatID, plain(textReplyUsage))
		return nil
	}
	rows, err := b.Feedback.All(ctx)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("Error: %v\n%s", err, textReplyUsage)))
		return err
	}
	fb, ok := service.LatestFeedback(rows, handle)
	if !ok {
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("No feedback from @%s found", handle)))
		return nil
	}
	if fb.ParticipantID == 0 {
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("No participant id stored for @%s", handle)))
		return nil
	}
	if err := b.Feedback.SetReply(ctx, fb.Row, model.FeedbackReplied, body); err != nil {
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("Error: %v", err)))
		return err
	}

	if err := b.Notifier.Deliver(ctx, fb.ParticipantID, replyPrompt(body)); err != nil {
		if serr := b.Feedback.SetReply(ctx, fb.Row, failedStatus(err), body); serr != nil {
			log.Printf("bot: mark feedback %d failed: %v", fb.Row, serr)
		}
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("Delivery failed: %v", err)))
		return nil
	}
	b.send(ctx, ev.ChatID, plain(fmt.Sprintf("Message sent to @%s", handle)))
	return nil
}

// issueToken hands an operator a bearer token for the ops API.
func (b *Bot) issueToken(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	if b.OpsJWTSecret == "" {
		b.send(ctx, ev.ChatID, plain(textOpsDisabled))
		return nil
	}
	tok, err := utils.NewAccessToken(b.OpsJWTSecret, ev.Sender.ID, utils.RoleOperator, b.OpsTokenTTL, b.now())
	if err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, chat.Prompt{
		Text: fmt.Sprintf("Ops API token, valid until %s UTC:\n\n<code>%s</code>",
			tok.Exp.Format("2006-01-02 15:04"), html.EscapeString(tok.Token)),
		HTML: true,
	})
	return nil
}
