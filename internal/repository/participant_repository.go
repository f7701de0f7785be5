package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// ParticipantRepo is the registry of everyone who ever started the bot.
// It is only used to enumerate broadcast recipients.
type ParticipantRepo struct {
	db *sql.DB
}

// NewParticipantRepo returns a new ParticipantRepo bound to the given database.
func NewParticipantRepo(db *sql.DB) *ParticipantRepo { return &ParticipantRepo{db: db} }

// Add registers p.  Registering a known id is a no-op; the stored name and
// handle are not refreshed.
func (r *ParticipantRepo) Add(ctx context.Context, p model.Participant) error {
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT IGNORE INTO participants (id, full_name, handle, created_at) VALUES (?, ?, ?, ?)`,
		p.ID, p.Name, p.Handle, created.UTC(),
	)
	if err != nil {
		return fmt.Errorf("add participant %d: %w", p.ID, err)
	}
	return nil
}

// ListIDs returns the ids of all registered participants in registration
// order.
func (r *ParticipantRepo) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT id FROM participants ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	defer rows.Close()
	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participant: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list participants: %w", err)
	}
	return ids, nil
}

// Count returns the number of registered participants.
func (r *ParticipantRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM participants`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count participants: %w", err)
	}
	return n, nil
}
