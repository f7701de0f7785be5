package chat

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Kind discriminates Token values.
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalid      // malformed callback payload

	// commands
	KindStart
	KindMyID
	KindAdmin
	KindBroadcast
	KindReply
	KindToken

	// free input
	KindText
	KindPhoto
	KindReview // operator pressed the review button of the admin panel

	// callback selections
	KindBuy
	KindPaid
	KindFeedback
	KindDate
	KindLocation
	KindTime
	KindBackToDates
	KindBackToLocations
	KindApprove
	KindReject
	KindStop
)

var kindNames = map[Kind]string{
	KindUnknown: "unknown", KindInvalid: "invalid",
	KindStart: "start", KindMyID: "myid", KindAdmin: "admin", KindBroadcast: "broadcast",
	KindReply: "reply", KindToken: "token", KindText: "text", KindPhoto: "photo",
	KindReview: "review", KindBuy: "buy", KindPaid: "paid", KindFeedback: "feedback",
	KindDate: "date", KindLocation: "loc", KindTime: "time", KindBackToDates: "back-to-dates",
	KindBackToLocations: "back-to-locations", KindApprove: "approve", KindReject: "reject",
	KindStop: "stop",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ReviewButton is the label of the reply keyboard button that starts a
// moderation pass.
const ReviewButton = "📋 Review reservations"

// Token is a parsed inbound interaction.  Only the fields relevant to Kind
// are populated.
type Token struct {
	Kind     Kind
	Text     string // free text, broadcast text or reply text
	Handle   string // reply target without the leading @
	FileID   string // photo reference
	Date     string
	Location string
	Time     string
	Row      uint64
}

var (
	errEmptyPayload = errors.New("empty callback payload")
	errBadField     = errors.New("callback field must be non-empty and free of ':'")
)

// Callback payload prefixes.
const (
	dataBuy             = "buy"
	dataPaid            = "paid"
	dataFeedback        = "feedback"
	dataBackToDates     = "back-to-dates"
	dataDate            = "date"
	dataLocation        = "loc"
	dataTime            = "time"
	dataBackToLocations = "back-to-locations"
	dataApprove         = "approve"
	dataReject          = "reject"
	dataStop            = "stop"
)

// ParseCallback parses a button payload.  Times are the last field and may
// contain ':'; dates and locations may not.
func ParseCallback(data string) (Token, error) {
	data = strings.TrimSpace(data)
	if data == "" {
		return Token{}, errEmptyPayload
	}
	switch data {
	case dataBuy:
		return Token{Kind: KindBuy}, nil
	case dataPaid:
		return Token{Kind: KindPaid}, nil
	case dataFeedback:
		return Token{Kind: KindFeedback}, nil
	case dataBackToDates:
		return Token{Kind: KindBackToDates}, nil
	}
	head, rest, ok := strings.Cut(data, ":")
	if !ok {
		return Token{}, fmt.Errorf("unknown callback %q", data)
	}
	switch head {
	case dataDate:
		if !validField(rest) {
			return Token{}, fmt.Errorf("date callback %q: %w", data, errBadField)
		}
		return Token{Kind: KindDate, Date: rest}, nil
	case dataBackToLocations:
		if !validField(rest) {
			return Token{}, fmt.Errorf("back callback %q: %w", data, errBadField)
		}
		return Token{Kind: KindBackToLocations, Date: rest}, nil
	case dataLocation:
		parts := strings.SplitN(rest, ":", 2)
		if len(parts) != 2 || !validField(parts[0]) || !validField(parts[1]) {
			return Token{}, fmt.Errorf("location callback %q: %w", data, errBadField)
		}
		return Token{Kind: KindLocation, Date: parts[0], Location: parts[1]}, nil
	case dataTime:
		parts := strings.SplitN(rest, ":", 3)
		if len(parts) != 3 || !validField(parts[0]) || !validField(parts[1]) || strings.TrimSpace(parts[2]) == "" {
			return Token{}, fmt.Errorf("time callback %q: %w", data, errBadField)
		}
		return Token{Kind: KindTime, Date: parts[0], Location: parts[1], Time: parts[2]}, nil
	case dataApprove, dataReject, dataStop:
		row, err := strconv.ParseUint(rest, 10, 64)
		if err != nil || row == 0 {
			return Token{}, fmt.Errorf("decision callback %q: invalid row", data)
		}
		kind := map[string]Kind{dataApprove: KindApprove, dataReject: KindReject, dataStop: KindStop}[head]
		return Token{Kind: kind, Row: row}, nil
	}
	return Token{}, fmt.Errorf("unknown callback %q", data)
}

// ParseText parses a typed message.  Commands take the form "/name args";
// a "@botname" suffix on the command is ignored.  Unknown commands parse as
// KindUnknown so they never leak into free-text states.
func ParseText(text string) Token {
	trimmed := strings.TrimSpace(text)
	if trimmed == ReviewButton {
		return Token{Kind: KindReview}
	}
	if !strings.HasPrefix(trimmed, "/") {
		return Token{Kind: KindText, Text: text}
	}
	name, args, _ := strings.Cut(trimmed[1:], " ")
	name, _, _ = strings.Cut(name, "@")
	args = strings.TrimSpace(args)
	switch strings.ToLower(name) {
	case "start":
		return Token{Kind: KindStart}
	case "myid":
		return Token{Kind: KindMyID}
	case "admin":
		return Token{Kind: KindAdmin}
	case "token":
		return Token{Kind: KindToken}
	case "broadcast":
		return Token{Kind: KindBroadcast, Text: args}
	case "reply":
		handle, body, _ := strings.Cut(args, " ")
		return Token{
			Kind:   KindReply,
			Handle: strings.TrimPrefix(strings.TrimSpace(handle), "@"),
			Text:   strings.TrimSpace(body),
		}
	}
	return Token{Kind: KindUnknown}
}

func validField(s string) bool {
	return strings.TrimSpace(s) != "" && !strings.Contains(s, ":")
}

// Payload builders for the buttons the bot renders.  They are the inverse
// of ParseCallback.

func BuyData() string      { return dataBuy }
func PaidData() string     { return dataPaid }
func FeedbackData() string { return dataFeedback }

func BackToDatesData() string { return dataBackToDates }

func DateData(date string) string { return dataDate + ":" + date }

func BackToLocationsData(date string) string { return dataBackToLocations + ":" + date }

func LocationData(date, location string) string {
	return dataLocation + ":" + date + ":" + location
}

func TimeData(date, location, t string) string {
	return dataTime + ":" + date + ":" + location + ":" + t
}

// MaxPayloadBytes is the Bot API limit on a button's callback data.
const MaxPayloadBytes = 64

// Encodable reports whether data fits into a button and parses back into
// a selection.  Schedule values with ':' in a date or location, or too long
// for the limit, are not encodable.
func Encodable(data string) bool {
	if len(data) > MaxPayloadBytes {
		return false
	}
	_, err := ParseCallback(data)
	return err == nil
}

func ApproveData(row uint64) string { return dataApprove + ":" + strconv.FormatUint(row, 10) }
func RejectData(row uint64) string  { return dataReject + ":" + strconv.FormatUint(row, 10) }
func StopData(row uint64) string    { return dataStop + ":" + strconv.FormatUint(row, 10) }
