package handler

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/config"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
	"github.com/iliyamo/ticket-bot/internal/service"
	"github.com/iliyamo/ticket-bot/internal/session"
)

// BroadcastScheduler starts a broadcast without waiting for it.
type BroadcastScheduler interface {
	Schedule(ctx context.Context, text string, requester int64) error
}

// BotDeps are the collaborators of the Bot.  All fields except
// OpsJWTSecret and Event are required.
type BotDeps struct {
	Messenger    chat.Messenger
	Sessions     session.Store
	Catalog      *service.Catalog
	Reservations service.ReservationLedger
	Feedback     service.FeedbackLedger
	Registry     service.Registry
	Review       *service.ReviewQueue
	Notifier     service.Deliverer
	Broadcasts   BroadcastScheduler
	OperatorIDs  []int64
	Event        config.EventConfig
	OpsJWTSecret string
	OpsTokenTTL  int // minutes
}

// step handles one token in one state.  sess is nil for commands and when
// the participant has no live session.
type step func(ctx context.Context, ev chat.Event, sess *model.Session) error

type routeKey struct {
	state model.State
	kind  chat.Kind
}

// Bot is the conversation state machine.  Every inbound event is routed by
// (session state, token kind); commands are routed by kind alone and work
// in any state.  Pairs without a route are ignored.
type Bot struct {
	BotDeps
	operators map[int64]bool
	routes    map[routeKey]step
	commands  map[chat.Kind]step
	now       func() time.Time
	bg        sync.WaitGroup
}

// NewBot wires the routing table.
func NewBot(deps BotDeps) *Bot {
	b := &Bot{BotDeps: deps, operators: make(map[int64]bool, len(deps.OperatorIDs)), now: time.Now}
	for _, id := range deps.OperatorIDs {
		b.operators[id] = true
	}

	b.commands = map[chat.Kind]step{
		chat.KindStart:     b.start,
		chat.KindMyID:      b.myID,
		chat.KindAdmin:     b.openAdmin,
		chat.KindBroadcast: b.broadcast,
		chat.KindReply:     b.reply,
		chat.KindToken:     b.issueToken,
	}

	b.routes = map[routeKey]step{
		{model.StateMainMenu, chat.KindBuy}:               b.showEventInfo,
		{model.StateMainMenu, chat.KindFeedback}:          b.askFeedback,
		{model.StatePaymentConfirmation, chat.KindPaid}:   b.askScreenshot,
		{model.StatePaymentScreenshot, chat.KindPhoto}:    b.saveScreenshot,
		{model.StatePaymentScreenshot, chat.KindText}:     b.screenshotAgain,
		{model.StateCustomerDetails, chat.KindText}:       b.saveName,
		{model.StateInstitute, chat.KindText}:             b.saveInstitute,
		{model.StateTicketQuantity, chat.KindText}:        b.saveQuantity,
		{model.StatePickupDate, chat.KindDate}:            b.pickDate,
		{model.StateSelectLocation, chat.KindLocation}:    b.pickLocation,
		{model.StateSelectLocation, chat.KindBackToDates}: b.backToDates,
		{model.StateSelectTime, chat.KindTime}:            b.pickTime,
		{model.StateSelectTime, chat.KindBackToLocations}: b.backToLocations,
		{model.StateFeedback, chat.KindText}:              b.saveFeedback,
		{model.StateAdminMenu, chat.KindReview}:           b.review,
		{model.StateReviewing, chat.KindApprove}:          b.approve,
		{model.StateReviewing, chat.KindReject}:           b.reject,
		{model.StateReviewing, chat.KindStop}:             b.stopReview,
	}
	return b
}

// IsOperator reports whether id is a configured operator.
func (b *Bot) IsOperator(id int64) bool { return b.operators[id] }

// Handle processes one event to completion.  Events of one participant
// must not be handled concurrently; worker.Pool lanes guarantee that.
func (b *Bot) Handle(ctx context.Context, ev chat.Event) {
	kind := ev.Token.Kind
	if kind == chat.KindInvalid {
		monitoring.TrackEvent(kind.String(), false)
		b.answer(ctx, ev, textStaleButton)
		return
	}
	if ev.FromButton() {
		defer b.answer(ctx, ev, "")
	}

	if fn, ok := b.commands[kind]; ok {
		monitoring.TrackEvent(kind.String(), true)
		if err := fn(ctx, ev, nil); err != nil {
			log.Printf("bot: command %s from %d: %v", kind, ev.Sender.ID, err)
		}
		return
	}

	sess, err := b.Sessions.Get(ctx, ev.Sender.ID)
	if err != nil {
		log.Printf("bot: load session %d: %v", ev.Sender.ID, err)
		return
	}
	state := model.StateNone
	if sess != nil {
		state = sess.State
	}
	fn, ok := b.routes[routeKey{state, kind}]
	monitoring.TrackEvent(kind.String(), ok)
	if !ok {
		return
	}
	if err := fn(ctx, ev, sess); err != nil {
		log.Printf("bot: %s in state %q from %d: %v", kind, state, ev.Sender.ID, err)
	}
}

// Wait blocks until background work started by handlers has finished.
func (b *Bot) Wait() { b.bg.Wait() }

func (b *Bot) answer(ctx context.Context, ev chat.Event, notice string) {
	if !ev.FromButton() {
		return
	}
	if err := b.Messenger.AnswerCallback(ctx, ev.CallbackID, notice); err != nil {
		log.Printf("bot: answer callback for %d: %v", ev.Sender.ID, err)
	}
}

// send writes a prompt to the event's chat.  Failures are logged: the
// participant cannot be told about a message that did not arrive.
func (b *Bot) send(ctx context.Context, chatID int64, p chat.Prompt) {
	if err := b.Messenger.Send(ctx, chatID, p); err != nil {
		log.Printf("bot: send to %d: %v", chatID, err)
	}
}

// show replaces the message carrying the pressed button, or sends a new
// one for typed input.  Failures are logged.
func (b *Bot) show(ctx context.Context, ev chat.Event, p chat.Prompt) {
	if err := b.deliver(ctx, ev, p); err != nil {
		log.Printf("bot: show to %d: %v", ev.ChatID, err)
	}
}

// deliver is show for menus: the caller moves the session forward only
// after the menu has arrived.
func (b *Bot) deliver(ctx context.Context, ev chat.Event, p chat.Prompt) error {
	if ev.MessageID == 0 {
		return b.Messenger.Send(ctx, ev.ChatID, p)
	}
	return b.Messenger.Edit(ctx, ev.ChatID, ev.MessageID, p)
}

// advance stores sess in state.
func (b *Bot) advance(ctx context.Context, sess *model.Session, state model.State) error {
	sess.State = state
	return b.Sessions.Put(ctx, sess)
}
