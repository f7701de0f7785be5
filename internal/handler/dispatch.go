package handler

import (
	"context"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/worker"
)

// Dispatcher feeds events into the worker pool, one lane per sender.
type Dispatcher struct {
	bot  *Bot
	pool *worker.Pool
}

// NewDispatcher returns a Dispatcher running bot.Handle on pool.
func NewDispatcher(bot *Bot, pool *worker.Pool) *Dispatcher {
	return &Dispatcher{bot: bot, pool: pool}
}

// Dispatch queues ev and returns without waiting for it to be handled.
func (d *Dispatcher) Dispatch(ev chat.Event) {
	err := d.pool.Submit(ev.Sender.ID, func(ctx context.Context) { d.bot.Handle(ctx, ev) })
	if err != nil {
		log.Printf("dispatch: dropped %s from %d: %v", ev.Token.Kind, ev.Sender.ID, err)
	}
}

// Poll dispatches updates from a long-polling channel until ctx ends or
// the channel closes.
func (d *Dispatcher) Poll(ctx context.Context, updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			if ev, ok := chat.EventFromUpdate(u); ok {
				d.Dispatch(ev)
			}
		}
	}
}
