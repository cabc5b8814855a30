package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/edustack/tutorhub-api/internal/models"
)

// ErrDuplicateReview means the booking already carries a review. Backed by
// the unique index on reviews.booking_id, so it also catches races the
// service-level pre-check cannot see.
var ErrDuplicateReview = errors.New("booking already reviewed")

// ReviewRepository manages reviews and the derived tutor rating aggregate.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository constructs a ReviewRepository.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// FindByBookingID fetches the review attached to a booking, if any.
func (r *ReviewRepository) FindByBookingID(ctx context.Context, bookingID string) (*models.Review, error) {
	const query = `SELECT id, booking_id, author_id, tutor_id, rating, comment, created_at FROM reviews WHERE booking_id = $1`
	var review models.Review
	if err := r.db.GetContext(ctx, &review, query, bookingID); err != nil {
		return nil, err
	}
	return &review, nil
}

// CreateAndRecompute inserts the review and overwrites the tutor's rating
// aggregate in the same transaction. The aggregate is always recomputed from
// scratch over the reviews table, never incremented, so retries and
// concurrent review creation cannot make it drift.
func (r *ReviewRepository) CreateAndRecompute(ctx context.Context, review *models.Review) error {
	if review.ID == "" {
		review.ID = uuid.NewString()
	}
	if review.CreatedAt.IsZero() {
		review.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}

	const insertQuery = `INSERT INTO reviews (id, booking_id, author_id, tutor_id, rating, comment, created_at)
		VALUES (:id, :booking_id, :author_id, :tutor_id, :rating, :comment, :created_at)`
	if _, err := tx.NamedExecContext(ctx, insertQuery, review); err != nil {
		tx.Rollback() //nolint:errcheck
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code.Name() == "unique_violation" {
			return ErrDuplicateReview
		}
		return fmt.Errorf("insert review: %w", err)
	}

	const recomputeQuery = `UPDATE tutor_profiles SET
			rating = (SELECT COALESCE(AVG(rating), 0) FROM reviews WHERE tutor_id = $1),
			total_reviews = (SELECT COUNT(*) FROM reviews WHERE tutor_id = $1),
			updated_at = $2
		WHERE id = $1`
	if _, err := tx.ExecContext(ctx, recomputeQuery, review.TutorID, time.Now().UTC()); err != nil {
		tx.Rollback() //nolint:errcheck
		return fmt.Errorf("recompute tutor rating: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit review: %w", err)
	}
	return nil
}

// ListByTutor returns a page of a tutor's reviews, newest first, with the
// total count.
func (r *ReviewRepository) ListByTutor(ctx context.Context, tutorID string, page, size int) ([]models.Review, int, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT id, booking_id, author_id, tutor_id, rating, comment, created_at
		FROM reviews WHERE tutor_id = $1 ORDER BY created_at DESC LIMIT %d OFFSET %d`, size, offset)
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, tutorID); err != nil {
		return nil, 0, fmt.Errorf("list tutor reviews: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM reviews WHERE tutor_id = $1`, tutorID); err != nil {
		return nil, 0, fmt.Errorf("count tutor reviews: %w", err)
	}
	return reviews, total, nil
}

// ListByAuthor returns every review a student has written, newest first.
func (r *ReviewRepository) ListByAuthor(ctx context.Context, authorID string) ([]models.Review, error) {
	const query = `SELECT id, booking_id, author_id, tutor_id, rating, comment, created_at
		FROM reviews WHERE author_id = $1 ORDER BY created_at DESC`
	var reviews []models.Review
	if err := r.db.SelectContext(ctx, &reviews, query, authorID); err != nil {
		return nil, fmt.Errorf("list author reviews: %w", err)
	}
	return reviews, nil
}
