package handler

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/repository"
)

// openAdmin shows the admin panel.  Non-operators get no answer.
func (b *Bot) openAdmin(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	if err := b.Sessions.Put(ctx, model.NewSession(ev.Sender.ID, model.StateAdminMenu)); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, adminPanelPrompt())
	return nil
}

func (b *Bot) review(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	return b.presentNext(ctx, ev)
}

// presentNext runs a full scan for the oldest New reservation and shows
// it, or closes the panel when there is none.
func (b *Bot) presentNext(ctx context.Context, ev chat.Event) error {
	res, err := b.Review.Next(ctx)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textQueueFailed))
		return err
	}
	if res == nil {
		if err := b.Sessions.Clear(ctx, ev.Sender.ID); err != nil {
			log.Printf("bot: clear session %d: %v", ev.Sender.ID, err)
		}
		b.send(ctx, ev.ChatID, chat.Prompt{Text: textQueueEmpty, RemoveKeyboard: true})
		return nil
	}

	sess := model.NewSession(ev.Sender.ID, model.StateReviewing)
	sess.Fields.ReviewRow = res.Row
	if err := b.Sessions.Put(ctx, sess); err != nil {
		return err
	}

	card := reservationCard(*res)
	if card.Photo == "" {
		b.send(ctx, ev.ChatID, card)
		return nil
	}
	if err := b.Messenger.Send(ctx, ev.ChatID, card); err != nil {
		log.Printf("bot: screenshot for reservation %d: %v", res.Row, err)
		card.Photo = ""
		b.send(ctx, ev.ChatID, card)
	}
	return nil
}

func (b *Bot) approve(ctx context.Context, ev chat.Event, _ *model.Session) error {
	return b.decide(ctx, ev, model.ReservationConfirmed, textApproved)
}

func (b *Bot) reject(ctx context.Context, ev chat.Event, _ *model.Session) error {
	return b.decide(ctx, ev, model.ReservationRejected, textRejected)
}

// decide resolves the row named by the pressed button and moves on to the
// next pending row.  A row resolved meanwhile by another operator is
// reported and skipped.
func (b *Bot) decide(ctx context.Context, ev chat.Event, status model.ReservationStatus, done string) error {
	if !b.IsOperator(ev.Sender.ID) {
		return nil
	}
	row := ev.Token.Row
	_, err := b.Review.Decide(ctx, row, status)
	switch {
	case err == nil:
		b.send(ctx, ev.ChatID, plain(done))
	case errors.Is(err, repository.ErrAlreadyResolved):
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("⚠️ Reservation #%d was already resolved by another operator.", row)))
	case errors.Is(err, repository.ErrNotFound):
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf("⚠️ Reservation #%d does not exist.", row)))
	default:
		b.send(ctx, ev.ChatID, plain(textQueueFailed))
		return err
	}
	return b.presentNext(ctx, ev)
}

func (b *Bot) stopReview(ctx context.Context, ev chat.Event, _ *model.Session) error {
	if err := b.Sessions.Clear(ctx, ev.Sender.ID); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, chat.Prompt{Text: textQueueStopped, RemoveKeyboard: true})
	return nil
}
