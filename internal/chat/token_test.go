package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback_Selections(t *testing.T) {
	cases := []struct {
		data string
		want Token
	}{
		{"buy", Token{Kind: KindBuy}},
		{"paid", Token{Kind: KindPaid}},
		{"feedback", Token{Kind: KindFeedback}},
		{"back-to-dates", Token{Kind: KindBackToDates}},
		{"date:2025-04-15", Token{Kind: KindDate, Date: "2025-04-15"}},
		{"back-to-locations:2025-04-15", Token{Kind: KindBackToLocations, Date: "2025-04-15"}},
		{"loc:2025-04-15:Hall1", Token{Kind: KindLocation, Date: "2025-04-15", Location: "Hall1"}},
		{"time:2025-04-15:Hall1:19:30", Token{Kind: KindTime, Date: "2025-04-15", Location: "Hall1", Time: "19:30"}},
		{"approve:2", Token{Kind: KindApprove, Row: 2}},
		{"reject:17", Token{Kind: KindReject, Row: 17}},
		{"stop:3", Token{Kind: KindStop, Row: 3}},
	}
	for _, tc := range cases {
		t.Run(tc.data, func(t *testing.T) {
			got, err := ParseCallback(tc.data)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseCallback_Malformed(t *testing.T) {
	for _, data := range []string{
		"",
		"sell",
		"date:",
		"loc:2025-04-15",
		"loc::Hall1",
		"time:2025-04-15:Hall1",
		"time:2025-04-15:Hall1:",
		"approve:x",
		"approve:0",
		"stop:-1",
		"unknown:1",
	} {
		_, err := ParseCallback(data)
		assert.Error(t, err, data)
	}
}

func TestPayloadBuilders_RoundTrip(t *testing.T) {
	for _, data := range []string{
		DateData("2025-04-15"),
		LocationData("2025-04-15", "Main hall"),
		TimeData("2025-04-15", "Main hall", "19:30"),
		BackToLocationsData("2025-04-15"),
		ApproveData(42),
		RejectData(42),
		StopData(42),
		BuyData(), PaidData(), FeedbackData(), BackToDatesData(),
	} {
		tok, err := ParseCallback(data)
		require.NoError(t, err, data)
		assert.NotEqual(t, KindUnknown, tok.Kind, data)
	}

	tok, err := ParseCallback(TimeData("2025-04-15", "Main hall", "19:30"))
	require.NoError(t, err)
	assert.Equal(t, "Main hall", tok.Location)
	assert.Equal(t, "19:30", tok.Time)
}

func TestParseText(t *testing.T) {
	assert.Equal(t, Token{Kind: KindStart}, ParseText("/start"))
	assert.Equal(t, Token{Kind: KindStart}, ParseText("/start@ticket_bot"))
	assert.Equal(t, Token{Kind: KindMyID}, ParseText("/myid"))
	assert.Equal(t, Token{Kind: KindAdmin}, ParseText(" /admin "))
	assert.Equal(t, Token{Kind: KindToken}, ParseText("/token"))
	assert.Equal(t, Token{Kind: KindBroadcast, Text: "doors open at 19:00"}, ParseText("/broadcast doors open at 19:00"))
	assert.Equal(t, Token{Kind: KindBroadcast}, ParseText("/broadcast"))
	assert.Equal(t, Token{Kind: KindReply, Handle: "alice", Text: "see you there"}, ParseText("/reply @alice see you there"))
	assert.Equal(t, Token{Kind: KindReply, Handle: "alice"}, ParseText("/reply alice"))
	assert.Equal(t, Token{Kind: KindReview}, ParseText(ReviewButton))
	assert.Equal(t, Token{Kind: KindUnknown}, ParseText("/nope"))
	assert.Equal(t, Token{Kind: KindText, Text: "Taras Shevchenko"}, ParseText("Taras Shevchenko"))
}

func TestRows(t *testing.T) {
	b := []Button{{Text: "a"}, {Text: "b"}, {Text: "c"}}
	assert.Equal(t, [][]Button{{b[0], b[1]}, {b[2]}}, Rows(b, 2))
	assert.Equal(t, [][]Button{{b[0]}, {b[1]}, {b[2]}}, Rows(b, 0))
	assert.Nil(t, Rows(nil, 1))
}

func TestEncodable(t *testing.T) {
	assert.True(t, Encodable(TimeData("2025-04-15", "Hall1", "19:30")))
	assert.True(t, Encodable(LocationData("2025-04-15", "Бібліотека")))

	long := TimeData("2025-04-15", "Головний корпус, аудиторія 101", "19:30")
	assert.Greater(t, len(long), MaxPayloadBytes)
	assert.False(t, Encodable(long))

	assert.False(t, Encodable(LocationData("2025-04-15", "Hall: A")))
	assert.False(t, Encodable(DateData("15:04")))
	assert.False(t, Encodable(TimeData("2025-04-15", "Hall1", " ")))
}
