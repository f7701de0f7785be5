package handler

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
)

// fallbackDateLayout formats today's date when the schedule has no dates.
const fallbackDateLayout = "2006-01-02"

// Input bounds.  maxFieldRunes is the width of the full_name and institute
// columns.
const (
	maxFieldRunes = 255
	maxTickets    = 100
)

// start registers the participant in the background, replaces any live
// session with a fresh one and shows the main menu.
func (b *Bot) start(ctx context.Context, ev chat.Event, _ *model.Session) error {
	who := ev.Sender
	b.bg.Add(1)
	go func() {
		defer b.bg.Done()
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := b.Registry.Add(rctx, who); err != nil {
			log.Printf("bot: register participant %d: %v", who.ID, err)
		}
	}()

	sess := model.NewSession(who.ID, model.StateMainMenu)
	sess.Fields.Handle = who.Handle
	if err := b.Sessions.Put(ctx, sess); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, mainMenuPrompt(b.Event, who))
	return nil
}

func (b *Bot) showEventInfo(ctx context.Context, ev chat.Event, sess *model.Session) error {
	if err := b.advance(ctx, sess, model.StatePaymentConfirmation); err != nil {
		return err
	}
	b.show(ctx, ev, eventInfoPrompt(b.Event))
	return nil
}

func (b *Bot) askScreenshot(ctx context.Context, ev chat.Event, sess *model.Session) error {
	if err := b.advance(ctx, sess, model.StatePaymentScreenshot); err != nil {
		return err
	}
	b.show(ctx, ev, plain(textSendScreenshot))
	return nil
}

func (b *Bot) screenshotAgain(ctx context.Context, ev chat.Event, _ *model.Session) error {
	b.send(ctx, ev.ChatID, plain(textScreenshotAgain))
	return nil
}

func (b *Bot) saveScreenshot(ctx context.Context, ev chat.Event, sess *model.Session) error {
	sess.Fields.ScreenshotRef = ev.Token.FileID
	sess.Fields.Handle = ev.Sender.Handle
	if err := b.advance(ctx, sess, model.StateCustomerDetails); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, plain(textAskName))
	return nil
}

func (b *Bot) saveName(ctx context.Context, ev chat.Event, sess *model.Session) error {
	name := strings.TrimSpace(ev.Token.Text)
	if name == "" {
		b.send(ctx, ev.ChatID, plain(textAskNameAgain))
		return nil
	}
	if utf8.RuneCountInString(name) > maxFieldRunes {
		b.send(ctx, ev.ChatID, plain(textTooLong))
		return nil
	}
	sess.Fields.FullName = name
	if err := b.advance(ctx, sess, model.StateInstitute); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, plain(textAskInstitute))
	return nil
}

func (b *Bot) saveInstitute(ctx context.Context, ev chat.Event, sess *model.Session) error {
	institute := strings.TrimSpace(ev.Token.Text)
	if institute == "" {
		b.send(ctx, ev.ChatID, plain(textInstituteAgain))
		return nil
	}
	if utf8.RuneCountInString(institute) > maxFieldRunes {
		b.send(ctx, ev.ChatID, plain(textTooLong))
		return nil
	}
	sess.Fields.Institute = institute
	if err := b.advance(ctx, sess, model.StateTicketQuantity); err != nil {
		return err
	}
	b.send(ctx, ev.ChatID, plain(textAskQuantity))
	return nil
}

// saveQuantity validates the ticket count and opens the date menu.
// Invalid input re-prompts and leaves the session as it was.
func (b *Bot) saveQuantity(ctx context.Context, ev chat.Event, sess *model.Session) error {
	n, err := strconv.Atoi(strings.TrimSpace(ev.Token.Text))
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textNotANumber))
		return nil
	}
	if n <= 0 {
		b.send(ctx, ev.ChatID, plain(textNotPositive))
		return nil
	}
	if n > maxTickets {
		b.send(ctx, ev.ChatID, plain(fmt.Sprintf(textTooManyTickets, maxTickets)))
		return nil
	}
	dates, err := b.dates(ctx)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textUnavailable))
		return err
	}
	if err := b.deliver(ctx, ev, datesPrompt(dates)); err != nil {
		return fmt.Errorf("date menu: %w", err)
	}
	sess.Fields.TicketCount = n
	return b.advance(ctx, sess, model.StatePickupDate)
}

// dates lists the pickup dates, offering today when the schedule is empty.
func (b *Bot) dates(ctx context.Context) ([]string, error) {
	dates, err := b.Catalog.Dates(ctx)
	if err != nil {
		return nil, err
	}
	dates = selectable("date", dates, chat.DateData)
	if len(dates) == 0 {
		dates = []string{b.now().Format(fallbackDateLayout)}
	}
	return dates, nil
}

func (b *Bot) backToDates(ctx context.Context, ev chat.Event, sess *model.Session) error {
	dates, err := b.dates(ctx)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textUnavailable))
		return err
	}
	if err := b.deliver(ctx, ev, datesPrompt(dates)); err != nil {
		return fmt.Errorf("date menu: %w", err)
	}
	return b.advance(ctx, sess, model.StatePickupDate)
}

func (b *Bot) pickDate(ctx context.Context, ev chat.Event, sess *model.Session) error {
	return b.showLocations(ctx, ev, sess, ev.Token.Date)
}

func (b *Bot) backToLocations(ctx context.Context, ev chat.Event, sess *model.Session) error {
	return b.showLocations(ctx, ev, sess, ev.Token.Date)
}

func (b *Bot) showLocations(ctx context.Context, ev chat.Event, sess *model.Session, date string) error {
	locations, err := b.Catalog.Locations(ctx, date)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textUnavailable))
		return err
	}
	locations = selectable("location", locations, func(l string) string { return chat.LocationData(date, l) })
	if err := b.deliver(ctx, ev, locationsPrompt(date, locations)); err != nil {
		return fmt.Errorf("location menu for %s: %w", date, err)
	}
	sess.Fields.Date = date
	sess.Fields.Location = ""
	sess.Fields.Time = ""
	return b.advance(ctx, sess, model.StateSelectLocation)
}

func (b *Bot) pickLocation(ctx context.Context, ev chat.Event, sess *model.Session) error {
	date, location := ev.Token.Date, ev.Token.Location
	if date != sess.Fields.Date {
		return nil
	}
	times, err := b.Catalog.Times(ctx, date, location)
	if err != nil {
		b.send(ctx, ev.ChatID, plain(textUnavailable))
		return err
	}
	times = selectable("time", times, func(t string) string { return chat.TimeData(date, location, t) })
	if err := b.deliver(ctx, ev, timesPrompt(date, location, times)); err != nil {
		return fmt.Errorf("time menu for %s/%s: %w", date, location, err)
	}
	sess.Fields.Date = date
	sess.Fields.Location = location
	sess.Fields.Time = ""
	return b.advance(ctx, sess, model.StateSelectTime)
}

// selectable drops the values whose button payload cannot be sent or
// parsed back, logging each one so the schedule can be corrected.
func selectable(what string, values []string, payload func(string) string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !chat.Encodable(payload(v)) {
			log.Printf("bot: schedule %s %q skipped: does not fit a button", what, v)
			continue
		}
		out = append(out, v)
	}
	return out
}

// pickTime is the terminal step: the reservation is appended with status
// New and the session is cleared.  Date and location come from the
// session; a time button from another date or location is stale and
// ignored.  When the append fails the session stays in SelectTime so the
// participant can press a time again.
func (b *Bot) pickTime(ctx context.Context, ev chat.Event, sess *model.Session) error {
	if ev.Token.Date != sess.Fields.Date || ev.Token.Location != sess.Fields.Location {
		return nil
	}
	sess.Fields.Time = ev.Token.Time
	res := &model.Reservation{
		RequestedAt:    b.now().UTC(),
		FullName:       sess.Fields.FullName,
		Institute:      sess.Fields.Institute,
		TicketCount:    sess.Fields.TicketCount,
		PickupDate:     sess.Fields.Date,
		PickupLocation: sess.Fields.Location,
		PickupTime:     sess.Fields.Time,
		ScreenshotRef:  sess.Fields.ScreenshotRef,
		ParticipantID:  ev.Sender.ID,
		Handle:         sess.Fields.Handle,
		Status:         model.ReservationNew,
	}
	if err := b.Reservations.Append(ctx, res); err != nil {
		b.send(ctx, ev.ChatID, plain(textSaveFailed))
		return err
	}
	monitoring.TrackReservation()
	if err := b.Sessions.Clear(ctx, ev.Sender.ID); err != nil {
		log.Printf("bot: clear session %d: %v", ev.Sender.ID, err)
	}
	b.show(ctx, ev, confirmationPrompt(*res))
	return nil
}
