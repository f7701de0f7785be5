package handler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/config"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/repository"
	"github.com/iliyamo/ticket-bot/internal/service"
	"github.com/iliyamo/ticket-bot/internal/session"
)

type outMsg struct {
	chatID    int64
	messageID int
	edit      bool
	prompt    chat.Prompt
}

type fakeMessenger struct {
	mu        sync.Mutex
	msgs      []outMsg
	answers   []string
	failPhoto bool
	failTo    map[int64]error
}

func newFakeMessenger() *fakeMessenger { return &fakeMessenger{failTo: map[int64]error{}} }

func (m *fakeMessenger) Send(_ context.Context, chatID int64, p chat.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPhoto && p.Photo != "" {
		return errors.New("Bad Request: wrong file identifier")
	}
	if err := m.failTo[chatID]; err != nil {
		return err
	}
	m.msgs = append(m.msgs, outMsg{chatID: chatID, prompt: p})
	return nil
}

func (m *fakeMessenger) Edit(_ context.Context, chatID int64, messageID int, p chat.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failTo[chatID]; err != nil {
		return err
	}
	m.msgs = append(m.msgs, outMsg{chatID: chatID, messageID: messageID, edit: true, prompt: p})
	return nil
}

func (m *fakeMessenger) AnswerCallback(_ context.Context, _ string, text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.answers = append(m.answers, text)
	return nil
}

func (m *fakeMessenger) to(chatID int64) []chat.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chat.Prompt
	for _, msg := range m.msgs {
		if msg.chatID == chatID {
			out = append(out, msg.prompt)
		}
	}
	return out
}

func (m *fakeMessenger) last(t *testing.T, chatID int64) chat.Prompt {
	t.Helper()
	got := m.to(chatID)
	require.NotEmpty(t, got, "no message to %d", chatID)
	return got[len(got)-1]
}

func (m *fakeMessenger) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.msgs)
}

type memReservations struct {
	mu        sync.Mutex
	rows      []model.Reservation
	appendErr error
	readErr   error
}

func (l *memReservations) Append(_ context.Context, res *model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.appendErr != nil {
		return l.appendErr
	}
	res.Row = uint64(len(l.rows) + 2)
	l.rows = append(l.rows, *res)
	return nil
}

func (l *memReservations) All(context.Context) ([]model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.readErr != nil {
		return nil, l.readErr
	}
	return append([]model.Reservation(nil), l.rows...), nil
}

func (l *memReservations) Get(_ context.Context, row uint64) (*model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, r := range l.rows {
		if r.Row == row {
			r := r
			return &r, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (l *memReservations) Resolve(_ context.Context, row uint64, status model.ReservationStatus) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].Row == row {
			if l.rows[i].Status != model.ReservationNew {
				return repository.ErrAlreadyResolved
			}
			l.rows[i].Status = status
			return nil
		}
	}
	return repository.ErrNotFound
}

type memFeedback struct {
	mu   sync.Mutex
	rows []model.Feedback
}

func (l *memFeedback) Append(_ context.Context, fb *model.Feedback) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fb.Row = uint64(len(l.rows) + 2)
	l.rows = append(l.rows, *fb)
	return nil
}

func (l *memFeedback) All(context.Context) ([]model.Feedback, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]model.Feedback(nil), l.rows...), nil
}

func (l *memFeedback) SetReply(_ context.Context, row uint64, status, reply string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i := range l.rows {
		if l.rows[i].Row == row {
			l.rows[i].Status = status
			l.rows[i].Reply = reply
			return nil
		}
	}
	return repository.ErrNotFound
}

type memSchedule struct {
	entries []model.ScheduleEntry
	err     error
}

func (s *memSchedule) All(context.Context) ([]model.ScheduleEntry, error) { return s.entries, s.err }

type memRegistry struct {
	mu    sync.Mutex
	added []model.Participant
}

func (r *memRegistry) Add(_ context.Context, p model.Participant) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.added = append(r.added, p)
	return nil
}

func (r *memRegistry) ListIDs(context.Context) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]int64, 0, len(r.added))
	for _, p := range r.added {
		ids = append(ids, p.ID)
	}
	return ids, nil
}

func (r *memRegistry) Count(ctx context.Context) (int, error) {
	ids, err := r.ListIDs(ctx)
	return len(ids), err
}

type scheduled struct {
	text      string
	requester int64
}

type fakeScheduler struct {
	mu   sync.Mutex
	jobs []scheduled
	err  error
}

func (s *fakeScheduler) Schedule(_ context.Context, text string, requester int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.jobs = append(s.jobs, scheduled{text: text, requester: requester})
	return nil
}

var (
	anna    = model.Participant{ID: 501, Name: "Anna Koval", Handle: "anna"}
	bohdan  = model.Participant{ID: 502, Name: "Bohdan", Handle: ""}
	olena   = model.Participant{ID: 900, Name: "Olena", Handle: "olena_ops"}
	taras   = model.Participant{ID: 901, Name: "Taras", Handle: "taras_ops"}
	today   = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opsKey  = "ops-secret"
	hallOne = model.ScheduleEntry{Date: "2025-04-15", Location: "Hall1", Times: "19:30,19:00"}
)

type harness struct {
	bot      *Bot
	out      *fakeMessenger
	sessions *session.MemoryStore
	res      *memReservations
	fb       *memFeedback
	sched    *memSchedule
	reg      *memRegistry
	jobs     *fakeScheduler
}

func newHarness() *harness {
	h := &harness{
		out:      newFakeMessenger(),
		sessions: session.NewMemoryStore(0),
		res:      &memReservations{},
		fb:       &memFeedback{},
		sched:    &memSchedule{entries: []model.ScheduleEntry{hallOne, {Date: "2025-04-16", Location: "Library", Times: "12:00"}}},
		reg:      &memRegistry{},
		jobs:     &fakeScheduler{},
	}
	notifier := service.NewNotifier(h.out, service.NotifierConfig{MaxAttempts: 1})
	h.bot = NewBot(BotDeps{
		Messenger:    h.out,
		Sessions:     h.sessions,
		Catalog:      service.NewCatalog(h.sched),
		Reservations: h.res,
		Feedback:     h.fb,
		Registry:     h.reg,
		Review:       service.NewReviewQueue(h.res, notifier),
		Notifier:     notifier,
		Broadcasts:   h.jobs,
		OperatorIDs:  []int64{olena.ID, taras.ID},
		Event:        config.EventConfig{Title: "The Last Delusion", Currency: "UAH"},
		OpsJWTSecret: opsKey,
		OpsTokenTTL:  60,
	})
	h.bot.now = func() time.Time { return today }
	return h
}

func (h *harness) text(from model.Participant, s string) {
	h.bot.Handle(context.Background(), chat.Event{ChatID: from.ID, Sender: from, Token: chat.ParseText(s)})
}

func (h *harness) photo(from model.Participant, fileID string) {
	h.bot.Handle(context.Background(), chat.Event{ChatID: from.ID, Sender: from, Token: chat.Token{Kind: chat.KindPhoto, FileID: fileID}})
}

func (h *harness) press(from model.Participant, data string) {
	tok, err := chat.ParseCallback(data)
	if err != nil {
		tok = chat.Token{Kind: chat.KindInvalid}
	}
	h.bot.Handle(context.Background(), chat.Event{ChatID: from.ID, Sender: from, MessageID: 77, CallbackID: "cb-" + data, Token: tok})
}

func (h *harness) session(t *testing.T, id int64) *model.Session {
	t.Helper()
	s, err := h.sessions.Get(context.Background(), id)
	require.NoError(t, err)
	return s
}

func (h *harness) state(t *testing.T, id int64) model.State {
	t.Helper()
	if s := h.session(t, id); s != nil {
		return s.State
	}
	return model.StateNone
}

// seed appends a pending reservation for who and returns its row.
func (h *harness) seed(who model.Participant, screenshot string, status model.ReservationStatus) uint64 {
	res := &model.Reservation{
		FullName:       who.Name,
		Institute:      "IT",
		TicketCount:    1,
		PickupDate:     "2025-04-15",
		PickupLocation: "Hall1",
		PickupTime:     "19:30",
		ScreenshotRef:  screenshot,
		ParticipantID:  who.ID,
		Handle:         who.Handle,
		Status:         status,
	}
	_ = h.res.Append(context.Background(), res)
	return res.Row
}
