package handler

import (
	"fmt"
	"html"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/config"
	"github.com/iliyamo/ticket-bot/internal/model"
)

// Fixed texts shown to participants and operators.
const (
	textMainMenu        = "Three buttons on the on-board computer, pick one 👀"
	textSendScreenshot  = "Please send a screenshot of the payment confirmation."
	textScreenshotAgain = "Please send the payment screenshot as a photo."
	textAskName         = "Thank you! Now enter your first and last name:"
	textAskNameAgain    = "Please enter your first and last name:"
	textAskInstitute    = "Which institute are you from?"
	textInstituteAgain  = "Please enter your institute:"
	textAskQuantity     = "Enter the number of tickets you bought:"
	textNotANumber      = "Please enter a number:"
	textNotPositive     = "Please enter a positive number:"
	textTooManyTickets  = "Please enter at most %d tickets:"
	textTooLong         = "That is too long, please keep it under 255 characters:"
	textAskDate         = "Choose the ticket pickup date:"
	textAskFeedback     = "Please write your feedback or question:"
	textFeedbackThanks  = "Thank you for your feedback! We will get back to you soon."
	textUnavailable     = "The schedule is unavailable right now, please try again in a minute."
	textSaveFailed      = "We could not save your reservation, please choose the time again."
	textFeedbackFailed  = "We could not save your message, please send it again."
	textStaleButton     = "This button is no longer valid, please use the menu again."
	textBack            = "⬅️ Back"

	textAdminPanel     = "You are in the admin panel:"
	textQueueEmpty     = "✅ All reservations reviewed!\nYou have left the admin panel."
	textQueueStopped   = "Review finished. You have left the admin panel."
	textQueueFailed    = "Reservations are unavailable right now, please try again later."
	textApproved       = "✅ Reservation confirmed"
	textRejected       = "❌ Reservation rejected"
	textBroadcastUsage = "Usage: /broadcast [message text]"
	textBroadcastQueue = "📤 Broadcast started. You will get a report when it is done."
	textReplyUsage     = "Wrong format. Use: /reply @username text"
	textOpsDisabled    = "The ops API is disabled."
)

func mainMenuPrompt(ev config.EventConfig, who model.Participant) chat.Prompt {
	buttons := []chat.Button{
		{Text: "🎟 Buy a ticket", Data: chat.BuyData()},
		{Text: "💬 Feedback", Data: chat.FeedbackData()},
	}
	if ev.GameURL != "" {
		name := who.Handle
		if name == "" {
			name = strconv.FormatInt(who.ID, 10)
		}
		buttons = append(buttons, chat.Button{Text: "🚀 Save the universe!", URL: gameLink(ev.GameURL, name)})
	}
	return chat.Prompt{Text: textMainMenu, Inline: chat.Rows(buttons, 2)}
}

func gameLink(base, username string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	q := u.Query()
	q.Set("username", username)
	u.RawQuery = q.Encode()
	return u.String()
}

// eventInfoPrompt renders the event card with the payment details and the
// "I have paid" button.
func eventInfoPrompt(ev config.EventConfig) chat.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "🎟️ <b>Event: %s</b>\n", html.EscapeString(ev.Title))
	if ev.Date != "" {
		fmt.Fprintf(&b, "📅 <b>Date:</b> %s\n", html.EscapeString(ev.Date))
	}
	if ev.Venue != "" {
		fmt.Fprintf(&b, "📍 <b>Venue:</b> %s\n", html.EscapeString(ev.Venue))
	}
	if ev.Time != "" {
		fmt.Fprintf(&b, "🕐 <b>Time:</b> %s\n", html.EscapeString(ev.Time))
	}
	if ev.Price.IsPositive() {
		fmt.Fprintf(&b, "💰 <b>Price:</b> from %s %s\n", ev.Price.StringFixed(2), html.EscapeString(ev.Currency))
	}
	if ev.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", html.EscapeString(ev.Description))
	}
	if ev.PaymentURL != "" {
		fmt.Fprintf(&b, "\n<a href=\"%s\">Payment link</a>\n", html.EscapeString(ev.PaymentURL))
	}
	if ev.PaymentAccount != "" {
		fmt.Fprintf(&b, "Account: %s\n", html.EscapeString(ev.PaymentAccount))
	}
	return chat.Prompt{
		Text:   b.String(),
		HTML:   true,
		Inline: [][]chat.Button{{{Text: "✅ I have paid", Data: chat.PaidData()}}},
	}
}

func datesPrompt(dates []string) chat.Prompt {
	buttons := make([]chat.Button, 0, len(dates))
	for _, d := range dates {
		buttons = append(buttons, chat.Button{Text: d, Data: chat.DateData(d)})
	}
	return chat.Prompt{Text: textAskDate, Inline: chat.Rows(buttons, 1)}
}

func locationsPrompt(date string, locations []string) chat.Prompt {
	buttons := make([]chat.Button, 0, len(locations)+1)
	for _, l := range locations {
		buttons = append(buttons, chat.Button{Text: l, Data: chat.LocationData(date, l)})
	}
	buttons = append(buttons, chat.Button{Text: textBack, Data: chat.BackToDatesData()})
	return chat.Prompt{
		Text:   fmt.Sprintf("📍 Choose the pickup location for %s:", date),
		Inline: chat.Rows(buttons, 1),
	}
}

func timesPrompt(date, location string, times []string) chat.Prompt {
	buttons := make([]chat.Button, 0, len(times)+1)
	for _, t := range times {
		buttons = append(buttons, chat.Button{Text: t, Data: chat.TimeData(date, location, t)})
	}
	buttons = append(buttons, chat.Button{Text: textBack, Data: chat.BackToLocationsData(date)})
	return chat.Prompt{
		Text:   fmt.Sprintf("🕒 Choose the pickup time for %s:", location),
		Inline: chat.Rows(buttons, 1),
	}
}

func confirmationPrompt(res model.Reservation) chat.Prompt {
	return chat.Prompt{
		Text: fmt.Sprintf("<b>Thank you for your purchase!</b>\nYour details are saved. Please wait for confirmation:\n\n"+
			"📅 Date: %s\n📍 Location: %s\n🕒 Time: %s",
			html.EscapeString(res.PickupDate), html.EscapeString(res.PickupLocation), html.EscapeString(res.PickupTime)),
		HTML: true,
	}
}

func feedbackForwardPrompt(who model.Participant, message string) chat.Prompt {
	text := fmt.Sprintf("🆕 New feedback from %s:\n\n%s", who.Mention(), message)
	if who.Handle != "" {
		text += fmt.Sprintf("\n\nTo reply: /reply @%s [text]", who.Handle)
	}
	return chat.Prompt{Text: text}
}

func adminPanelPrompt() chat.Prompt {
	return chat.Prompt{Text: textAdminPanel, Reply: [][]string{{chat.ReviewButton}}}
}

// reservationCard is the moderation view of one row, with the decision
// buttons attached.  It is sent as a photo caption when a screenshot is
// known, so it stays plain text.
func reservationCard(res model.Reservation) chat.Prompt {
	handle := res.Handle
	if handle == "" {
		handle = "none"
	}
	text := fmt.Sprintf("📌 New reservation #%d:\n\nName: %s\nInstitute: %s\nTickets: %d\nDate: %s\nLocation: %s\nTime: %s\nUsername: @%s",
		res.Row, orNone(res.FullName), orNone(res.Institute), res.TicketCount,
		orNone(res.PickupDate), orNone(res.PickupLocation), orNone(res.PickupTime), handle)
	return chat.Prompt{
		Text:  text,
		Photo: res.ScreenshotRef,
		Inline: [][]chat.Button{
			{
				{Text: "✅ Confirm", Data: chat.ApproveData(res.Row)},
				{Text: "❌ Reject", Data: chat.RejectData(res.Row)},
			},
			{{Text: "Finish review", Data: chat.StopData(res.Row)}},
		},
	}
}

func orNone(s string) string {
	if strings.TrimSpace(s) == "" {
		return "none"
	}
	return s
}

func replyPrompt(text string) chat.Prompt {
	return chat.Prompt{Text: "📨 <b>Administrator reply:</b>\n\n" + html.EscapeString(text), HTML: true}
}

// failedStatus builds the feedback status stored when a reply could not be
// delivered; the reason is cut to 50 characters.
func failedStatus(err error) string {
	reason := err.Error()
	if utf8.RuneCountInString(reason) > 50 {
		reason = string([]rune(reason)[:50])
	}
	return model.FeedbackFailedPrefix + reason
}

func plain(s string) chat.Prompt { return chat.Prompt{Text: s} }
