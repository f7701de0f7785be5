package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/iliyamo/ticket-bot/internal/chat"
	"github.com/iliyamo/ticket-bot/internal/model"
	"github.com/iliyamo/ticket-bot/internal/monitoring"
	"github.com/iliyamo/ticket-bot/internal/repository"
)

// ReviewQueue is the operator side of reservations: find the oldest
// unresolved row, resolve it once, tell the participant.
type ReviewQueue struct {
	ledger   ReservationLedger
	notifier Deliverer
}

// NewReviewQueue returns a ReviewQueue over ledger.
func NewReviewQueue(ledger ReservationLedger, notifier Deliverer) *ReviewQueue {
	return &ReviewQueue{ledger: ledger, notifier: notifier}
}

// Next scans the whole ledger and returns the New row with the smallest
// index, or nil when everything is resolved.  Each call is a full O(rows)
// scan; the queue never resumes from a previous position.
func (q *ReviewQueue) Next(ctx context.Context) (*model.Reservation, error) {
	rows, err := q.ledger.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("review queue: %w", err)
	}
	res, ok := FirstPending(rows)
	if !ok {
		return nil, nil
	}
	return &res, nil
}

// Decide resolves row to status (Confirmed or Rejected) and notifies the
// participant.  It returns repository.ErrAlreadyResolved when the row was
// resolved before, by this or another operator; the participant is not
// notified again in that case.  Notification failures are logged only.
func (q *ReviewQueue) Decide(ctx context.Context, row uint64, status model.ReservationStatus) (*model.Reservation, error) {
	decision := string(status)
	res, err := q.ledger.Get(ctx, row)
	if err != nil {
		return nil, fmt.Errorf("review row %d: %w", row, err)
	}
	if res.Status.Resolved() {
		monitoring.TrackDecision(decision, "already_resolved")
		return res, repository.ErrAlreadyResolved
	}
	if err := q.ledger.Resolve(ctx, row, status); err != nil {
		if errors.Is(err, repository.ErrAlreadyResolved) {
			monitoring.TrackDecision(decision, "already_resolved")
			return res, err
		}
		return nil, fmt.Errorf("review row %d: %w", row, err)
	}
	monitoring.TrackDecision(decision, "applied")
	res.Status = status

	if res.ParticipantID != 0 {
		if err := q.notifier.Deliver(ctx, res.ParticipantID, OutcomePrompt(*res)); err != nil {
			log.Printf("review: notify participant %d about row %d: %v", res.ParticipantID, row, err)
		}
	}
	return res, nil
}

// OutcomePrompt is the fixed message a participant gets once their
// reservation is resolved.
func OutcomePrompt(res model.Reservation) chat.Prompt {
	if res.Status == model.ReservationConfirmed {
		return chat.Prompt{Text: fmt.Sprintf(
			"🎉 Your payment is confirmed! You can pick up your ticket:\n\nDate: %s\nLocation: %s\nTime: %s.",
			res.PickupDate, res.PickupLocation, res.PickupTime)}
	}
	return chat.Prompt{Text: "❌ Your payment was rejected. Please contact an administrator."}
}
