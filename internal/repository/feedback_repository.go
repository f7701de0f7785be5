package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// FeedbackRepo is the feedback table of the ledger.
type FeedbackRepo struct {
	db *sql.DB
}

// NewFeedbackRepo returns a new FeedbackRepo bound to the given database.
func NewFeedbackRepo(db *sql.DB) *FeedbackRepo { return &FeedbackRepo{db: db} }

// Append inserts fb and stores the generated row index in fb.Row.
func (r *FeedbackRepo) Append(ctx context.Context, fb *model.Feedback) error {
	const q = `INSERT INTO feedback (created_at, handle, message, status, reply, participant_id)
        VALUES (?, ?, ?, ?, ?, ?)`
	if fb.Status == "" {
		fb.Status = model.FeedbackNew
	}
	result, err := r.db.ExecContext(ctx, q, fb.CreatedAt.UTC(), fb.Handle, fb.Message, fb.Status, fb.Reply, fb.ParticipantID)
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("append feedback: %w", err)
	}
	fb.Row = uint64(id)
	return nil
}

// All returns every feedback row in storage order.
func (r *FeedbackRepo) All(ctx context.Context) ([]model.Feedback, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, created_at, handle, message, status, reply, participant_id FROM feedback ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	defer rows.Close()
	var out []model.Feedback
	for rows.Next() {
		var fb model.Feedback
		if err := rows.Scan(&fb.Row, &fb.CreatedAt, &fb.Handle, &fb.Message, &fb.Status, &fb.Reply, &fb.ParticipantID); err != nil {
			return nil, fmt.Errorf("scan feedback: %w", err)
		}
		out = append(out, fb)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list feedback: %w", err)
	}
	return out, nil
}

// SetReply writes the status and reply cells of a row.
func (r *FeedbackRepo) SetReply(ctx context.Context, row uint64, status, reply string) error {
	result, err := r.db.ExecContext(ctx, `UPDATE feedback SET status = ?, reply = ? WHERE id = ?`, status, reply, row)
	if err != nil {
		return fmt.Errorf("update feedback %d: %w", row, err)
	}
	// the DSN sets clientFoundRows, so unchanged rows still count as affected
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update feedback %d: %w", row, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
