package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/repository"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

type reviewRepoStub struct {
	byBooking map[string]*models.Review
	created   []*models.Review
	createErr error
	tutorList []models.Review
	total     int
	authored  []models.Review
}

func (s *reviewRepoStub) FindByBookingID(ctx context.Context, bookingID string) (*models.Review, error) {
	if r, ok := s.byBooking[bookingID]; ok {
		return r, nil
	}
	return nil, sql.ErrNoRows
}

func (s *reviewRepoStub) CreateAndRecompute(ctx context.Context, review *models.Review) error {
	if s.createErr != nil {
		return s.createErr
	}
	review.ID = "review-new"
	s.created = append(s.created, review)
	return nil
}

func (s *reviewRepoStub) ListByTutor(ctx context.Context, tutorID string, page, size int) ([]models.Review, int, error) {
	return s.tutorList, s.total, nil
}

func (s *reviewRepoStub) ListByAuthor(ctx context.Context, authorID string) ([]models.Review, error) {
	return s.authored, nil
}

func newReviewFixture(booking *models.Booking) (*ReviewService, *reviewRepoStub) {
	reviews := &reviewRepoStub{byBooking: map[string]*models.Review{}}
	bookings := &bookingRepoStub{byID: map[string]*models.Booking{}}
	if booking != nil {
		bookings.byID[booking.ID] = booking
	}
	return NewReviewService(reviews, bookings, nil, zap.NewNop(), nil), reviews
}

func completedBooking() *models.Booking {
	return &models.Booking{
		ID:        "b-1",
		StudentID: "student-1",
		TutorID:   "tutor-1",
		Status:    models.BookingCompleted,
	}
}

func TestReviewCreate(t *testing.T) {
	svc, repo := newReviewFixture(completedBooking())

	review, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{
		TutorID:   "tutor-1",
		BookingID: "b-1",
		Rating:    8.5,
	})
	require.NoError(t, err)
	assert.Equal(t, "review-new", review.ID)
	assert.Equal(t, "student-1", review.AuthorID)
	require.Len(t, repo.created, 1)
}

func TestReviewCreateRatingBounds(t *testing.T) {
	svc, _ := newReviewFixture(completedBooking())

	for _, rating := range []float64{-0.5, 10.5} {
		_, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{
			TutorID:   "tutor-1",
			BookingID: "b-1",
			Rating:    rating,
		})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	}

	for _, rating := range []float64{0, 10} {
		_, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{
			TutorID:   "tutor-1",
			BookingID: "b-1",
			Rating:    rating,
		})
		require.NoError(t, err)
	}
}

func TestReviewCreateMissingFieldsMessage(t *testing.T) {
	svc, _ := newReviewFixture(completedBooking())

	_, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{Rating: 8})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "invalid review payload", appErr.Message)
}

func TestReviewCreatePreconditions(t *testing.T) {
	cases := []struct {
		name    string
		booking *models.Booking
		student string
		tutorID string
	}{
		{"unknown booking", nil, "student-1", "tutor-1"},
		{"foreign booking", &models.Booking{ID: "b-1", StudentID: "student-2", TutorID: "tutor-1", Status: models.BookingCompleted}, "student-1", "tutor-1"},
		{"tutor mismatch", completedBooking(), "student-1", "tutor-2"},
		{"not completed", &models.Booking{ID: "b-1", StudentID: "student-1", TutorID: "tutor-1", Status: models.BookingConfirmed}, "student-1", "tutor-1"},
		{"cancelled", &models.Booking{ID: "b-1", StudentID: "student-1", TutorID: "tutor-1", Status: models.BookingCancelled}, "student-1", "tutor-1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, repo := newReviewFixture(tc.booking)
			_, err := svc.Create(context.Background(), tc.student, CreateReviewRequest{
				TutorID:   tc.tutorID,
				BookingID: "b-1",
				Rating:    7,
			})
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
			assert.Empty(t, repo.created)
		})
	}
}

func TestReviewCreateDuplicate(t *testing.T) {
	svc, repo := newReviewFixture(completedBooking())
	repo.byBooking["b-1"] = &models.Review{ID: "review-1", BookingID: "b-1"}

	_, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{
		TutorID:   "tutor-1",
		BookingID: "b-1",
		Rating:    7,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewCreateDuplicateRace(t *testing.T) {
	svc, repo := newReviewFixture(completedBooking())
	repo.createErr = repository.ErrDuplicateReview

	_, err := svc.Create(context.Background(), "student-1", CreateReviewRequest{
		TutorID:   "tutor-1",
		BookingID: "b-1",
		Rating:    7,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestReviewListForTutorClampsPaging(t *testing.T) {
	svc, repo := newReviewFixture(nil)
	repo.tutorList = []models.Review{{ID: "review-1"}}
	repo.total = 42

	reviews, pagination, err := svc.ListForTutor(context.Background(), "tutor-1", 0, 500)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PageSize)
	assert.Equal(t, 42, pagination.TotalCount)
}
