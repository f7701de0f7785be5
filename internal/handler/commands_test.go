package handler

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
)

func leaveFeedback(h *harness, who model.Participant, msg string) {
	_ = h.fb.Append(context.Background(), &model.Feedback{
		Handle:        who.Handle,
		Message:       msg,
		Status:        model.FeedbackNew,
		ParticipantID: who.ID,
	})
}

func TestBroadcastCommand(t *testing.T) {
	h := newHarness()

	h.text(anna, "/broadcast free tickets")
	assert.Empty(t, h.jobs.jobs)
	assert.Zero(t, h.out.count())

	h.text(olena, "/broadcast")
	assert.Equal(t, textBroadcastUsage, h.out.last(t, olena.ID).Text)
	assert.Empty(t, h.jobs.jobs)

	h.text(olena, "/broadcast Doors open at 18:30")
	require.Len(t, h.jobs.jobs, 1)
	assert.Equal(t, scheduled{text: "Doors open at 18:30", requester: olena.ID}, h.jobs.jobs[0])
	assert.Equal(t, textBroadcastQueue, h.out.last(t, olena.ID).Text)
}

func TestBroadcastScheduleFailure(t *testing.T) {
	h := newHarness()
	h.jobs.err = errors.New("channel closed")

	h.text(taras, "/broadcast hi")
	assert.Equal(t, "❌ Broadcast failed: channel closed", h.out.last(t, taras.ID).Text)
}

func TestReplyAnswersLatestFeedback(t *testing.T) {
	h := newHarness()
	leaveFeedback(h, anna, "first")
	leaveFeedback(h, bohdan, "unrelated")
	leaveFeedback(h, anna, "second")

	h.text(olena, "/reply @anna See you at <8pm>")

	assert.Equal(t, model.FeedbackNew, h.fb.rows[0].Status)
	assert.Equal(t, model.FeedbackReplied, h.fb.rows[2].Status)
	assert.Equal(t, "See you at <8pm>", h.fb.rows[2].Reply)

	got := h.out.last(t, anna.ID)
	assert.Equal(t, "📨 <b>Administrator reply:</b>\n\nSee you at &lt;8pm&gt;", got.Text)
	assert.True(t, got.HTML)
	assert.Equal(t, "Message sent to @anna", h.out.last(t, olena.ID).Text)
}

func TestReplyErrors(t *testing.T) {
	h := newHarness()
	leaveFeedback(h, model.Participant{Handle: "ghost"}, "no id here")

	h.text(olena, "/reply @anna")
	assert.Equal(t, textReplyUsage, h.out.last(t, olena.ID).Text)

	h.text(olena, "/reply @nobody hello")
	assert.Equal(t, "No feedback from @nobody found", h.out.last(t, olena.ID).Text)

	h.text(olena, "/reply @ghost hello")
	assert.Equal(t, "No participant id stored for @ghost", h.out.last(t, olena.ID).Text)
	assert.Equal(t, model.FeedbackNew, h.fb.rows[0].Status)

	h.text(anna, "/reply @ghost hello")
	assert.Empty(t, h.out.to(anna.ID))
}

func TestReplyDeliveryFailureIsRecorded(t *testing.T) {
	h := newHarness()
	leaveFeedback(h, anna, "question")
	h.out.failTo[anna.ID] = errors.New("Forbidden: bot was blocked by the user and then some more words")

	h.text(olena, "/reply @anna hello")

	status := h.fb.rows[0].Status
	assert.True(t, strings.HasPrefix(status, model.FeedbackFailedPrefix), status)
	assert.LessOrEqual(t, len([]rune(strings.TrimPrefix(status, model.FeedbackFailedPrefix))), 50)
	assert.Equal(t, "hello", h.fb.rows[0].Reply)
	assert.True(t, strings.HasPrefix(h.out.last(t, olena.ID).Text, "Delivery failed: "))
}

func TestTokenCommand(t *testing.T) {
	h := newHarness()

	h.text(anna, "/token")
	assert.Zero(t, h.out.count())

	h.text(olena, "/token")
	msg := h.out.last(t, olena.ID)
	require.True(t, msg.HTML)
	start := strings.Index(msg.Text, "<code>") + len("<code>")
	end := strings.Index(msg.Text, "</code>")
	raw := msg.Text[start:end]

	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (interface{}, error) { return []byte(opsKey), nil },
		jwt.WithTimeFunc(func() time.Time { return today }))
	require.NoError(t, err)
	assert.Equal(t, "900", claims["sub"])
	assert.Equal(t, "OPERATOR", claims["role"])

	h.bot.OpsJWTSecret = ""
	h.text(taras, "/token")
	assert.Equal(t, textOpsDisabled, h.out.last(t, taras.ID).Text)
}

func TestCommandsWorkInAnyState(t *testing.T) {
	h := newHarness()
	walkToQuantity(h, anna)

	h.text(anna, "/myid")
	assert.Equal(t, "Your ID: 501", h.out.last(t, anna.ID).Text)
	assert.Equal(t, model.StateTicketQuantity, h.state(t, anna.ID))

	h.text(anna, "/unknown")
	assert.Equal(t, model.StateTicketQuantity, h.state(t, anna.ID))
	assert.Zero(t, h.session(t, anna.ID).Fields.TicketCount)
}

func TestEventInfoIncludesPaymentButton(t *testing.T) {
	h := newHarness()
	h.text(anna, "/start")
	h.press(anna, chat.BuyData())

	info := h.out.last(t, anna.ID)
	assert.True(t, info.HTML)
	assert.Contains(t, info.Text, "The Last Delusion")
	assert.Equal(t, chat.PaidData(), info.Inline[0][0].Data)
	assert.Equal(t, model.StatePaymentConfirmation, h.state(t, anna.ID))
}
