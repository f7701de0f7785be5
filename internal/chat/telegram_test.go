package chat

import (
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassify(t *testing.T) {
	assert.NoError(t, classify(nil))

	blocked := classify(&tgbotapi.Error{Code: 403, Message: "Forbidden: bot was blocked by the user"})
	assert.ErrorIs(t, blocked, ErrBlocked)

	limited := classify(&tgbotapi.Error{
		Code:               429,
		Message:            "Too Many Requests: retry after 3",
		ResponseParameters: tgbotapi.ResponseParameters{RetryAfter: 3},
	})
	var ra *RetryAfterError
	require.ErrorAs(t, limited, &ra)
	assert.Equal(t, 3*time.Second, ra.Wait)

	other := errors.New("connection reset")
	assert.Same(t, other, classify(other))
	assert.NotErrorIs(t, classify(&tgbotapi.Error{Code: 400, Message: "Bad Request"}), ErrBlocked)
}

func TestEventFromUpdate_Callback(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: 7, FirstName: "Olena", LastName: "Pchilka", UserName: "olena"},
		Message: &tgbotapi.Message{MessageID: 55, Chat: &tgbotapi.Chat{ID: 7}},
		Data:    "loc:2025-04-15:Hall1",
	}}
	ev, ok := EventFromUpdate(u)
	require.True(t, ok)
	assert.Equal(t, int64(7), ev.ChatID)
	assert.Equal(t, 55, ev.MessageID)
	assert.True(t, ev.FromButton())
	assert.Equal(t, "Olena Pchilka", ev.Sender.Name)
	assert.Equal(t, "olena", ev.Sender.Handle)
	assert.Equal(t, Token{Kind: KindLocation, Date: "2025-04-15", Location: "Hall1"}, ev.Token)
}

func TestEventFromUpdate_MalformedCallback(t *testing.T) {
	u := tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:   "cb2",
		From: &tgbotapi.User{ID: 7},
		Data: "approve:abc",
	}}
	ev, ok := EventFromUpdate(u)
	require.True(t, ok)
	assert.Equal(t, KindInvalid, ev.Token.Kind)
	assert.Equal(t, int64(7), ev.ChatID)
}

func TestEventFromUpdate_Photo(t *testing.T) {
	u := tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 9},
		Chat: &tgbotapi.Chat{ID: 9},
		Photo: []tgbotapi.PhotoSize{
			{FileID: "small"},
			{FileID: "large"},
		},
	}}
	ev, ok := EventFromUpdate(u)
	require.True(t, ok)
	assert.Equal(t, KindPhoto, ev.Token.Kind)
	assert.Equal(t, "large", ev.Token.FileID)
	assert.False(t, ev.FromButton())
}

func TestEventFromUpdate_Ignored(t *testing.T) {
	_, ok := EventFromUpdate(tgbotapi.Update{})
	assert.False(t, ok)

	_, ok = EventFromUpdate(tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: 9},
		Chat: &tgbotapi.Chat{ID: 9},
	}})
	assert.False(t, ok)
}

func TestReplyMarkup(t *testing.T) {
	assert.Nil(t, replyMarkup(Prompt{Text: "plain"}))

	inline, ok := replyMarkup(Prompt{Inline: [][]Button{{{Text: "Buy", Data: "buy"}, {Text: "Play", URL: "https://example.org"}}}}).(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.Len(t, inline.InlineKeyboard, 1)
	require.Len(t, inline.InlineKeyboard[0], 2)
	require.NotNil(t, inline.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "buy", *inline.InlineKeyboard[0][0].CallbackData)
	require.NotNil(t, inline.InlineKeyboard[0][1].URL)

	reply, ok := replyMarkup(Prompt{Reply: [][]string{{ReviewButton}}}).(tgbotapi.ReplyKeyboardMarkup)
	require.True(t, ok)
	assert.True(t, reply.ResizeKeyboard)

	_, ok = replyMarkup(Prompt{RemoveKeyboard: true}).(tgbotapi.ReplyKeyboardRemove)
	assert.True(t, ok)
}
