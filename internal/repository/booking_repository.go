package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/tutorhub-api/internal/models"
)

// Sentinel errors surfaced by the transactional booking create so the service
// layer can distinguish the two admission failures from store faults.
var (
	// ErrBookingOverlap means a non-cancelled booking already occupies part
	// of the requested interval.
	ErrBookingOverlap = errors.New("booking overlaps an existing booking")
	// ErrOutsideAvailability means no published slot fully contains the
	// requested interval.
	ErrOutsideAvailability = errors.New("booking outside published availability")
	// ErrBookingStateChanged means a lifecycle transition found the booking
	// no longer in the state it expected, because a concurrent transition
	// committed first.
	ErrBookingStateChanged = errors.New("booking state changed concurrently")
)

const bookingColumns = `id, student_id, tutor_id, subject, notes, start_at, end_at, price, status, created_at, updated_at`

// BookingRepository manages persistence for bookings.
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository constructs a BookingRepository.
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// CreateConfirmed admits a new CONFIRMED booking. The conflict scan, the
// availability coverage check and the insert run in one transaction that
// first takes a per-tutor advisory lock, so two concurrent requests for the
// same tutor serialize and the second one observes the first one's row.
func (r *BookingRepository) CreateConfirmed(ctx context.Context, booking *models.Booking, window models.BookingWindow) error {
	if booking.ID == "" {
		booking.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now
	booking.Status = models.BookingConfirmed

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, booking.TutorID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("acquire tutor lock: %w", err)
	}

	// Half-open intervals: [a,b) and [c,d) intersect iff a < d and c < b.
	const overlapQuery = `SELECT 1 FROM bookings
		WHERE tutor_id = $1 AND status <> 'CANCELLED' AND start_at < $3 AND end_at > $2 LIMIT 1`
	var conflict int
	err = tx.GetContext(ctx, &conflict, overlapQuery, booking.TutorID, booking.StartAt, booking.EndAt)
	switch {
	case err == nil:
		tx.Rollback() //nolint:errcheck
		return ErrBookingOverlap
	case err != sql.ErrNoRows:
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("scan booking conflicts: %w", err)
	}

	const coverageQuery = `SELECT 1 FROM availability_slots
		WHERE tutor_id = $1 AND day_of_week = $2 AND start_time <= $3 AND end_time >= $4 LIMIT 1`
	var covered int
	err = tx.GetContext(ctx, &covered, coverageQuery, booking.TutorID, window.DayOfWeek, window.StartTime, window.EndTime)
	switch {
	case err == sql.ErrNoRows:
		tx.Rollback() //nolint:errcheck
		return ErrOutsideAvailability
	case err != nil:
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("check availability coverage: %w", err)
	}

	const insertQuery = `INSERT INTO bookings (id, student_id, tutor_id, subject, notes, start_at, end_at, price, status, created_at, updated_at)
		VALUES (:id, :student_id, :tutor_id, :subject, :notes, :start_at, :end_at, :price, :status, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, booking); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("insert booking: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit booking: %w", err)
	}
	return nil
}

// FindByID fetches one booking.
func (r *BookingRepository) FindByID(ctx context.Context, id string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, err
	}
	return &booking, nil
}

// FindForTutor fetches one booking scoped to a tutor profile.
func (r *BookingRepository) FindForTutor(ctx context.Context, id, tutorID string) (*models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE id = $1 AND tutor_id = $2`, bookingColumns)
	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id, tutorID); err != nil {
		return nil, err
	}
	return &booking, nil
}

// List returns bookings matching the filter, most recent start first. An
// empty filter returns every booking (admin oversight).
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	query := fmt.Sprintf(`SELECT %s FROM bookings WHERE 1=1`, bookingColumns)
	var args []interface{}

	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		query += fmt.Sprintf(" AND student_id = $%d", len(args))
	}
	if filter.TutorID != "" {
		args = append(args, filter.TutorID)
		query += fmt.Sprintf(" AND tutor_id = $%d", len(args))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY start_at DESC"

	var bookings []models.Booking
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

// UpdateStatus transitions a booking between lifecycle states with a
// compare-and-set predicate on the expected current state, so a transition
// that committed between the caller's read and this write is never
// overwritten. A zero-row update surfaces as ErrBookingStateChanged.
func (r *BookingRepository) UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error {
	const query = `UPDATE bookings SET status = $3, updated_at = $4 WHERE id = $1 AND status = $2`
	result, err := r.db.ExecContext(ctx, query, id, from, to, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update booking status: %w", err)
	}
	if affected == 0 {
		return ErrBookingStateChanged
	}
	return nil
}
