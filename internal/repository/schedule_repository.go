package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// ScheduleRepo reads the schedule table.  The table is maintained by hand
// by the organisers, so the bot never writes to it.
type ScheduleRepo struct {
	db *sql.DB
}

// NewScheduleRepo returns a new ScheduleRepo bound to the given database.
func NewScheduleRepo(db *sql.DB) *ScheduleRepo { return &ScheduleRepo{db: db} }

// All returns every schedule row in storage order.
func (r *ScheduleRepo) All(ctx context.Context) ([]model.ScheduleEntry, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT pickup_date, location, times FROM schedule ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	defer rows.Close()
	var out []model.ScheduleEntry
	for rows.Next() {
		var e model.ScheduleEntry
		if err := rows.Scan(&e.Date, &e.Location, &e.Times); err != nil {
			return nil, fmt.Errorf("scan schedule: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list schedule: %w", err)
	}
	return out, nil
}
