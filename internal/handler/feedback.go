package handler

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
)

func (b *Bot) askFeedback(ctx context.Context, ev chat.Event, sess *model.Session) error {
	if err := b.advance(ctx, sess, model.StateFeedback); err != nil {
		return err
	}
	b.show(ctx, ev, plain(textAskFeedback))
	return nil
}

// saveFeedback records the message, forwards it to every operator in
// parallel and thanks the participant whatever the forwarding results.
func (b *Bot) saveFeedback(ctx context.Context, ev chat.Event, sess *model.Session) error {
	message := strings.TrimSpace(ev.Token.Text)
	if message == "" {
		b.send(ctx, ev.ChatID, plain(textAskFeedback))
		return nil
	}
	fb := &model.Feedback{
		CreatedAt:     b.now().UTC(),
		Handle:        ev.Sender.Handle,
		Message:       message,
		Status:        model.FeedbackNew,
		ParticipantID: ev.Sender.ID,
	}
	if err := b.Feedback.Append(ctx, fb); err != nil {
		b.send(ctx, ev.ChatID, plain(textFeedbackFailed))
		return err
	}
	monitoring.TrackFeedback()

	forwarded := b.notifyOperators(ctx, feedbackForwardPrompt(ev.Sender, message))
	log.Printf("bot: feedback %d forwarded to %d/%d operators", fb.Row, forwarded, len(b.OperatorIDs))

	if err := b.Sessions.Clear(ctx, sess.ParticipantID); err != nil {
		log.Printf("bot: clear session %d: %v", sess.ParticipantID, err)
	}
	b.send(ctx, ev.ChatID, plain(textFeedbackThanks))
	return nil
}

// notifyOperators delivers p to every operator concurrently and returns
// how many deliveries succeeded.
func (b *Bot) notifyOperators(ctx context.Context, p chat.Prompt) int {
	var ok atomic.Int32
	var g errgroup.Group
	g.SetLimit(8)
	for _, id := range b.OperatorIDs {
		id := id
		g.Go(func() error {
			if err := b.Notifier.Deliver(ctx, id, p); err != nil {
				log.Printf("bot: forward to operator %d: %v", id, err)
				return nil
			}
			ok.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(ok.Load())
}
