package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/tutorhub-api/internal/models"
)

func newBookingRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func testBooking() *models.Booking {
	start := time.Date(2026, 1, 7, 14, 0, 0, 0, time.UTC)
	return &models.Booking{
		StudentID: "student-1",
		TutorID:   "tutor-1",
		Subject:   "Algebra",
		StartAt:   start,
		EndAt:     start.Add(time.Hour),
		Price:     40,
	}
}

func testWindow() models.BookingWindow {
	return models.BookingWindow{DayOfWeek: 3, StartTime: "14:00", EndTime: "15:00"}
}

func TestBookingRepositoryCreateConfirmed(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("tutor-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs("tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM availability_slots").
		WithArgs("tutor-1", 3, "14:00", "15:00").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectExec("INSERT INTO bookings").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	booking := testBooking()
	require.NoError(t, repo.CreateConfirmed(context.Background(), booking, testWindow()))
	assert.NotEmpty(t, booking.ID)
	assert.Equal(t, models.BookingConfirmed, booking.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateConfirmedOverlap(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("tutor-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WithArgs("tutor-1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))
	mock.ExpectRollback()

	err := repo.CreateConfirmed(context.Background(), testBooking(), testWindow())
	assert.ErrorIs(t, err, ErrBookingOverlap)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryCreateConfirmedOutsideAvailability(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SELECT pg_advisory_xact_lock(hashtext($1))")).
		WithArgs("tutor-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT 1 FROM bookings").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("SELECT 1 FROM availability_slots").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectRollback()

	err := repo.CreateConfirmed(context.Background(), testBooking(), testWindow())
	assert.ErrorIs(t, err, ErrOutsideAvailability)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	status := models.BookingConfirmed
	rows := sqlmock.NewRows([]string{"id", "student_id", "tutor_id", "subject", "notes", "start_at", "end_at", "price", "status", "created_at", "updated_at"}).
		AddRow("b-1", "student-1", "tutor-1", "Algebra", nil, time.Now(), time.Now(), 40.0, "CONFIRMED", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM bookings WHERE 1=1 AND student_id = $1 AND status = $2 ORDER BY start_at DESC")).
		WithArgs("student-1", status).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.BookingFilter{StudentID: "student-1", Status: &status})
	require.NoError(t, err)
	assert.Len(t, list, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("b-1", models.BookingConfirmed, models.BookingCancelled, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "b-1", models.BookingConfirmed, models.BookingCancelled))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryUpdateStatusStaleState(t *testing.T) {
	db, mock, cleanup := newBookingRepoMock(t)
	defer cleanup()
	repo := NewBookingRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2")).
		WithArgs("b-1", models.BookingConfirmed, models.BookingCompleted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdateStatus(context.Background(), "b-1", models.BookingConfirmed, models.BookingCompleted)
	assert.ErrorIs(t, err, ErrBookingStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
