package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/repository"
)

type sent struct {
	to     int64
	prompt chat.Prompt
}

// scriptedMessenger returns queued errors for a recipient before succeeding.
type scriptedMessenger struct {
	mu     sync.Mutex
	script map[int64][]error
	calls  map[int64]int
	sent   []sent
}

func newScriptedMessenger() *scriptedMessenger {
	return &scriptedMessenger{script: map[int64][]error{}, calls: map[int64]int{}}
}

func (m *scriptedMessenger) fail(to int64, errs ...error) { m.script[to] = append(m.script[to], errs...) }

func (m *scriptedMessenger) Send(_ context.Context, to int64, p chat.Prompt) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[to]++
	if q := m.script[to]; len(q) > 0 {
		var sticky stickyError
		if errors.As(q[0], &sticky) {
			return sticky.err
		}
		m.script[to] = q[1:]
		if q[0] != nil {
			return q[0]
		}
	}
	m.sent = append(m.sent, sent{to: to, prompt: p})
	return nil
}

func (m *scriptedMessenger) Edit(ctx context.Context, to int64, _ int, p chat.Prompt) error {
	return m.Send(ctx, to, p)
}

func (m *scriptedMessenger) AnswerCallback(context.Context, string, string) error { return nil }

func (m *scriptedMessenger) sentTo(to int64) []chat.Prompt {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []chat.Prompt
	for _, s := range m.sent {
		if s.to == to {
			out = append(out, s.prompt)
		}
	}
	return out
}

// stickyError is returned on every call once reached.
type stickyError struct{ err error }

func (e stickyError) Error() string { return e.err.Error() }

func always(err error) error { return stickyError{err: err} }

func retryAfter(d time.Duration) error {
	return &chat.RetryAfterError{Wait: d, Err: errors.New("Too Many Requests")}
}

type recordedSleeps struct {
	mu     sync.Mutex
	waits  []time.Duration
	cancel bool
}

func (r *recordedSleeps) sleep(ctx context.Context, d time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.waits = append(r.waits, d)
	if r.cancel {
		return context.Canceled
	}
	return ctx.Err()
}

type memReservations struct {
	mu   sync.Mutex
	rows []model.Reservation
	err  error
}

func (l *memReservations) Append(_ context.Context, res *model.Reservation) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	res.Row = uint64(len(l.rows) + 1)
	if res.Status == "" {
		res.Status = model.ReservationNew
	}
	l.rows = append(l.rows, *res)
	return nil
}

func (l *memReservations) All(context.Context) ([]model.Reservation, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return nil, l.err
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
		if l.rows[i].Row != row {
			continue
		}
		if l.rows[i].Status != model.ReservationNew {
			return repository.ErrAlreadyResolved
		}
		l.rows[i].Status = status
		return nil
	}
	return repository.ErrNotFound
}

type memSchedule struct {
	entries []model.ScheduleEntry
	err     error
}

func (s memSchedule) All(context.Context) ([]model.ScheduleEntry, error) { return s.entries, s.err }

type memRecipients struct {
	ids []int64
	err error
}

func (r memRecipients) ListIDs(context.Context) ([]int64, error) { return r.ids, r.err }
