package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/repository"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

type reviewRepository interface {
	FindByBookingID(ctx context.Context, bookingID string) (*models.Review, error)
	CreateAndRecompute(ctx context.Context, review *models.Review) error
	ListByTutor(ctx context.Context, tutorID string, page, size int) ([]models.Review, int, error)
	ListByAuthor(ctx context.Context, authorID string) ([]models.Review, error)
}

type reviewBookingRepository interface {
	FindByID(ctx context.Context, id string) (*models.Booking, error)
}

// CreateReviewRequest represents the payload for reviewing a completed
// session.
type CreateReviewRequest struct {
	TutorID   string  `json:"tutor_id" validate:"required"`
	BookingID string  `json:"booking_id" validate:"required"`
	Rating    float64 `json:"rating" validate:"gte=0,lte=10"`
	Comment   *string `json:"comment" validate:"omitempty,max=2000"`
}

// ReviewService creates reviews and keeps the tutor rating aggregate
// consistent with them.
type ReviewService struct {
	reviews   reviewRepository
	bookings  reviewBookingRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
}

// NewReviewService constructs a ReviewService.
func NewReviewService(reviews reviewRepository, bookings reviewBookingRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService) *ReviewService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReviewService{reviews: reviews, bookings: bookings, validator: validate, logger: logger, metrics: metrics}
}

// Create attaches a review to a completed booking owned by the calling
// student and recomputes the tutor's aggregate in the same transaction.
func (s *ReviewService) Create(ctx context.Context, studentID string, req CreateReviewRequest) (*models.Review, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid review payload")
	}

	booking, err := s.bookings.FindByID(ctx, req.BookingID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}
	if err != nil || booking.StudentID != studentID || booking.TutorID != req.TutorID || booking.Status != models.BookingCompleted {
		return nil, appErrors.Clone(appErrors.ErrValidation, "booking not found or not completed yet")
	}

	if _, err := s.reviews.FindByBookingID(ctx, req.BookingID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "session already reviewed")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing review")
	}

	review := &models.Review{
		BookingID: req.BookingID,
		AuthorID:  studentID,
		TutorID:   req.TutorID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := s.reviews.CreateAndRecompute(ctx, review); err != nil {
		if errors.Is(err, repository.ErrDuplicateReview) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "session already reviewed")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create review")
	}

	s.metrics.ReviewCreated()
	s.logger.Info("review created",
		zap.String("review_id", review.ID),
		zap.String("tutor_id", review.TutorID),
		zap.Float64("rating", review.Rating),
	)
	return review, nil
}

// ListForTutor returns a page of a tutor's reviews with pagination metadata.
func (s *ReviewService) ListForTutor(ctx context.Context, tutorID string, page, size int) ([]models.Review, *models.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 10
	}
	reviews, total, err := s.reviews.ListByTutor(ctx, tutorID, page, size)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// ListMine returns the reviews the calling student has written.
func (s *ReviewService) ListMine(ctx context.Context, studentID string) ([]models.Review, error) {
	reviews, err := s.reviews.ListByAuthor(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reviews")
	}
	return reviews, nil
}
