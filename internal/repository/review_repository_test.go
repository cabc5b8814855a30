package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/edustack/tutorhub-api/internal/models"
)

func newReviewRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestReviewRepositoryCreateAndRecompute(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE tutor_profiles SET").
		WithArgs("tutor-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	review := &models.Review{BookingID: "b-1", AuthorID: "student-1", TutorID: "tutor-1", Rating: 9}
	require.NoError(t, repo.CreateAndRecompute(context.Background(), review))
	assert.NotEmpty(t, review.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO reviews").
		WillReturnError(&pq.Error{Code: "23505"})
	mock.ExpectRollback()

	review := &models.Review{BookingID: "b-1", AuthorID: "student-1", TutorID: "tutor-1", Rating: 9}
	err := repo.CreateAndRecompute(context.Background(), review)
	assert.ErrorIs(t, err, ErrDuplicateReview)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReviewRepositoryListByTutor(t *testing.T) {
	db, mock, cleanup := newReviewRepoMock(t)
	defer cleanup()
	repo := NewReviewRepository(db)

	rows := sqlmock.NewRows([]string{"id", "booking_id", "author_id", "tutor_id", "rating", "comment", "created_at"}).
		AddRow("review-1", "b-1", "student-1", "tutor-1", 9.0, nil, time.Now())
	mock.ExpectQuery("FROM reviews WHERE tutor_id = .+ ORDER BY created_at DESC LIMIT 10 OFFSET 10").
		WithArgs("tutor-1").
		WillReturnRows(rows)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM reviews WHERE tutor_id = $1")).
		WithArgs("tutor-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	reviews, total, err := repo.ListByTutor(context.Background(), "tutor-1", 2, 10)
	require.NoError(t, err)
	assert.Len(t, reviews, 1)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
