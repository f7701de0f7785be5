package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticket-bot/internal/model"
)

var reservationCols = []string{"id", "requested_at", "full_name", "institute", "ticket_count", "pickup_date",
	"pickup_location", "pickup_time", "screenshot_ref", "participant_id", "handle", "status"}

func setupMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestReservationRepo_Append(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectExec("INSERT INTO reservations").
		WithArgs(sqlmock.AnyArg(), "Ivan Franko", "IKNI", 2, "2025-04-15", "Hall1", "19:30",
			"file-1", int64(7), "ivan", "New").
		WillReturnResult(sqlmock.NewResult(5, 1))

	res := &model.Reservation{
		RequestedAt:    time.Now(),
		FullName:       "Ivan Franko",
		Institute:      "IKNI",
		TicketCount:    2,
		PickupDate:     "2025-04-15",
		PickupLocation: "Hall1",
		PickupTime:     "19:30",
		ScreenshotRef:  "file-1",
		ParticipantID:  7,
		Handle:         "ivan",
	}
	require.NoError(t, repo.Append(context.Background(), res))
	assert.Equal(t, uint64(5), res.Row)
	assert.Equal(t, model.ReservationNew, res.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_AppendError(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectExec("INSERT INTO reservations").WillReturnError(errors.New("connection refused"))

	err := repo.Append(context.Background(), &model.Reservation{})
	assert.ErrorContains(t, err, "append reservation")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_AllInStorageOrder(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)
	now := time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT .* FROM reservations ORDER BY id").WillReturnRows(
		sqlmock.NewRows(reservationCols).
			AddRow(1, now, "A", "IKNI", 1, "2025-04-15", "Hall1", "19:00", "", 10, "a", "Confirmed").
			AddRow(2, now, "B", "IPPT", 3, "2025-04-15", "Hall1", "19:30", "f", 11, "", "New"),
	)

	got, err := repo.All(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, uint64(1), got[0].Row)
	assert.Equal(t, model.ReservationConfirmed, got[0].Status)
	assert.Equal(t, uint64(2), got[1].Row)
	assert.Equal(t, 3, got[1].TicketCount)
	assert.Equal(t, int64(11), got[1].ParticipantID)
	assert.Equal(t, model.ReservationNew, got[1].Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_GetMissing(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectQuery("SELECT .* FROM reservations WHERE id = ?").
		WithArgs(uint64(9)).
		WillReturnRows(sqlmock.NewRows(reservationCols))

	_, err := repo.Get(context.Background(), 9)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ResolveOnlyWhileNew(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectExec("UPDATE reservations SET status = \\? WHERE id = \\? AND status = \\?").
		WithArgs("Confirmed", uint64(2), "New").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Resolve(context.Background(), 2, model.ReservationConfirmed))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ResolveLostRace(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectExec("UPDATE reservations SET status").
		WithArgs("Rejected", uint64(2), "New").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM reservations WHERE id = ?").
		WithArgs(uint64(2)).
		WillReturnRows(sqlmock.NewRows([]string{"status"}).AddRow("Confirmed"))

	err := repo.Resolve(context.Background(), 2, model.ReservationRejected)
	assert.ErrorIs(t, err, ErrAlreadyResolved)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ResolveMissingRow(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	mock.ExpectExec("UPDATE reservations SET status").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT status FROM reservations").WillReturnRows(sqlmock.NewRows([]string{"status"}))

	err := repo.Resolve(context.Background(), 99, model.ReservationConfirmed)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReservationRepo_ResolveRejectsNonTerminalStatus(t *testing.T) {
	db, mock := setupMock(t)
	repo := NewReservationRepo(db)

	err := repo.Resolve(context.Background(), 1, model.ReservationNew)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
