// Package service implements the core of the bot that is independent of
// the chat transport: the catalog resolver, the moderation queue, the
// notifier and the broadcast engine.  Ledger and registry access goes
// through the small interfaces below; internal/repository provides the
// MySQL implementations.
package service

import (
	"context"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// ReservationLedger is the reservations table.
type ReservationLedger interface {
	Append(ctx context.Context, res *model.Reservation) error
	All(ctx context.Context) ([]model.Reservation, error)
	Get(ctx context.Context, row uint64) (*model.Reservation, error)
	// Resolve moves a New row to a terminal status and fails with
	// repository.ErrAlreadyResolved when the row is no longer New.
	Resolve(ctx context.Context, row uint64, status model.ReservationStatus) error
}

// FeedbackLedger is the feedback table.
type FeedbackLedger interface {
	Append(ctx context.Context, fb *model.Feedback) error
	All(ctx context.Context) ([]model.Feedback, error)
	SetReply(ctx context.Context, row uint64, status, reply string) error
}

// ScheduleLedger is the schedule table.
type ScheduleLedger interface {
	All(ctx context.Context) ([]model.ScheduleEntry, error)
}

// Registry enumerates known participants.
type Registry interface {
	Add(ctx context.Context, p model.Participant) error
	ListIDs(ctx context.Context) ([]int64, error)
}

// FirstPending returns the New reservation with the smallest row index.
// It is a linear scan over rows, which must be in storage order: O(rows).
func FirstPending(rows []model.Reservation) (model.Reservation, bool) {
	for _, r := range rows {
		if r.Status == model.ReservationNew {
			return r, true
		}
	}
	return model.Reservation{}, false
}

// LatestFeedback returns the most recent feedback row left by handle.  It
// scans rows (storage order) backwards: O(rows).
func LatestFeedback(rows []model.Feedback, handle string) (model.Feedback, bool) {
	for i := len(rows) - 1; i >= 0; i-- {
		if rows[i].Handle == handle {
			return rows[i], true
		}
	}
	return model.Feedback{}, false
}
