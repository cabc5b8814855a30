package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/edustack/tutorhub-api/internal/models"
)

// AvailabilityRepository manages a tutor's recurring weekly open hours.
type AvailabilityRepository struct {
	db *sqlx.DB
}

// NewAvailabilityRepository constructs an AvailabilityRepository.
func NewAvailabilityRepository(db *sqlx.DB) *AvailabilityRepository {
	return &AvailabilityRepository{db: db}
}

// ListByTutor returns a tutor's slots ordered by weekday and start time.
func (r *AvailabilityRepository) ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilitySlot, error) {
	const query = `SELECT id, tutor_id, day_of_week, start_time, end_time, created_at
		FROM availability_slots WHERE tutor_id = $1 ORDER BY day_of_week, start_time`
	var slots []models.AvailabilitySlot
	if err := r.db.SelectContext(ctx, &slots, query, tutorID); err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	return slots, nil
}

// HasOverlap reports whether any stored slot for the tutor and weekday
// intersects the given interval. Intervals are half-open, so the predicate
// start < existing.end AND end > existing.start covers partial overlap in
// either direction as well as full containment both ways.
func (r *AvailabilityRepository) HasOverlap(ctx context.Context, tutorID string, dayOfWeek int, startTime, endTime string) (bool, error) {
	const query = `SELECT 1 FROM availability_slots
		WHERE tutor_id = $1 AND day_of_week = $2 AND start_time < $4 AND end_time > $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, tutorID, dayOfWeek, startTime, endTime); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check slot overlap: %w", err)
	}
	return true, nil
}

// Insert stores one new slot.
func (r *AvailabilityRepository) Insert(ctx context.Context, slot *models.AvailabilitySlot) error {
	if slot.ID == "" {
		slot.ID = uuid.NewString()
	}
	if slot.CreatedAt.IsZero() {
		slot.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO availability_slots (id, tutor_id, day_of_week, start_time, end_time, created_at)
		VALUES (:id, :tutor_id, :day_of_week, :start_time, :end_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, slot); err != nil {
		return fmt.Errorf("insert availability slot: %w", err)
	}
	return nil
}

// ReplaceAll atomically deletes every slot for the tutor and inserts the
// provided set. Exact duplicates within the new set collapse onto the unique
// index instead of failing the whole batch.
func (r *AvailabilityRepository) ReplaceAll(ctx context.Context, tutorID string, slots []models.AvailabilitySlot) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM availability_slots WHERE tutor_id = $1`, tutorID); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("clear availability: %w", err)
	}
	const query = `INSERT INTO availability_slots (id, tutor_id, day_of_week, start_time, end_time, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (tutor_id, day_of_week, start_time, end_time) DO NOTHING`
	now := time.Now().UTC()
	for i := range slots {
		if slots[i].ID == "" {
			slots[i].ID = uuid.NewString()
		}
		slots[i].TutorID = tutorID
		slots[i].CreatedAt = now
		if _, err := tx.ExecContext(ctx, query, slots[i].ID, tutorID, slots[i].DayOfWeek, slots[i].StartTime, slots[i].EndTime, now); err != nil {
			tx.Rollback() //nolint:errcheck
			return fmt.Errorf("insert availability slot: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit availability: %w", err)
	}
	return nil
}

// Delete removes one slot owned by the tutor.
func (r *AvailabilityRepository) Delete(ctx context.Context, slotID, tutorID string) error {
	const query = `DELETE FROM availability_slots WHERE id = $1 AND tutor_id = $2`
	result, err := r.db.ExecContext(ctx, query, slotID, tutorID)
	if err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
