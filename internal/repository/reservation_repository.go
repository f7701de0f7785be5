package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/ticket-bot/internal/model"
)

// ReservationRepo is the reservations table of the ledger.  Rows are only
// ever appended; afterwards the status column is the single mutable cell.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, requested_at, full_name, institute, ticket_count, pickup_date,
        pickup_location, pickup_time, screenshot_ref, participant_id, handle, status`

// Append inserts res as a new row with its current status (normally New)
// and stores the generated row index in res.Row.
func (r *ReservationRepo) Append(ctx context.Context, res *model.Reservation) error {
	const q = `INSERT INTO reservations (requested_at, full_name, institute, ticket_count, pickup_date,
        pickup_location, pickup_time, screenshot_ref, participant_id, handle, status)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	if res.Status == "" {
		res.Status = model.ReservationNew
	}
	result, err := r.db.ExecContext(ctx, q,
		res.RequestedAt.UTC(), res.FullName, res.Institute, res.TicketCount, res.PickupDate,
		res.PickupLocation, res.PickupTime, res.ScreenshotRef, res.ParticipantID, res.Handle, string(res.Status),
	)
	if err != nil {
		return fmt.Errorf("append reservation: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("append reservation: %w", err)
	}
	res.Row = uint64(id)
	return nil
}

// All returns every reservation in storage (append) order.
func (r *ReservationRepo) All(ctx context.Context) ([]model.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+reservationColumns+` FROM reservations ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()
	var out []model.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	return out, nil
}

// Get returns the row with the given index or ErrNotFound.
func (r *ReservationRepo) Get(ctx context.Context, row uint64) (*model.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, row))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get reservation %d: %w", row, err)
	}
	return &res, nil
}

// Resolve moves a New row to status.  The update is a compare-and-set on
// the status cell: when the row is no longer New, nothing changes and
// ErrAlreadyResolved is returned.  ErrNotFound is returned for unknown rows.
func (r *ReservationRepo) Resolve(ctx context.Context, row uint64, status model.ReservationStatus) error {
	if !status.Resolved() {
		return fmt.Errorf("resolve reservation %d: %q is not a terminal status", row, status)
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE reservations SET status = ? WHERE id = ? AND status = ?`,
		string(status), row, string(model.ReservationNew),
	)
	if err != nil {
		return fmt.Errorf("resolve reservation %d: %w", row, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("resolve reservation %d: %w", row, err)
	}
	if n == 1 {
		return nil
	}
	// Nothing changed: tell a missing row apart from a lost race.
	var current string
	err = r.db.QueryRowContext(ctx, `SELECT status FROM reservations WHERE id = ?`, row).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("resolve reservation %d: %w", row, err)
	}
	return ErrAlreadyResolved
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(s rowScanner) (model.Reservation, error) {
	var res model.Reservation
	var status string
	err := s.Scan(
		&res.Row, &res.RequestedAt, &res.FullName, &res.Institute, &res.TicketCount, &res.PickupDate,
		&res.PickupLocation, &res.PickupTime, &res.ScreenshotRef, &res.ParticipantID, &res.Handle, &status,
	)
	res.Status = model.ReservationStatus(status)
	return res, err
}
