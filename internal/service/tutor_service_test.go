package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

type tutorProfileRepoStub struct {
	byUserID      map[string]*models.TutorProfile
	created       []*models.TutorProfile
	updated       []*models.TutorProfile
	categories    []models.Category
	categoryCount int
}

func (s *tutorProfileRepoStub) FindByID(ctx context.Context, id string) (*models.TutorProfile, error) {
	for _, p := range s.byUserID {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *tutorProfileRepoStub) FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error) {
	if p, ok := s.byUserID[userID]; ok {
		return p, nil
	}
	return nil, sql.ErrNoRows
}

func (s *tutorProfileRepoStub) Create(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error {
	profile.ID = "tutor-new"
	s.created = append(s.created, profile)
	return nil
}

func (s *tutorProfileRepoStub) Update(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error {
	s.updated = append(s.updated, profile)
	return nil
}

func (s *tutorProfileRepoStub) CategoriesForTutor(ctx context.Context, tutorID string) ([]models.Category, error) {
	return s.categories, nil
}

func (s *tutorProfileRepoStub) CountCategories(ctx context.Context, categoryIDs []string) (int, error) {
	return s.categoryCount, nil
}

func TestTutorProfileCreate(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{}, categoryCount: 1}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	profile, err := svc.Create(context.Background(), "user-1", CreateTutorProfileRequest{
		Education:   "BSc Mathematics",
		HourlyRate:  floatPtr(35),
		Timezone:    "Europe/Berlin",
		CategoryIDs: []string{"cat-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "tutor-new", profile.ID)
	assert.Equal(t, "Europe/Berlin", profile.Timezone)
	require.Len(t, repo.created, 1)
}

func TestTutorProfileCreateDuplicate(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{
		"user-1": {ID: "tutor-1", UserID: "user-1"},
	}}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	_, err := svc.Create(context.Background(), "user-1", CreateTutorProfileRequest{Education: "BSc"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestTutorProfileCreateInvalidTimezone(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{}}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	_, err := svc.Create(context.Background(), "user-1", CreateTutorProfileRequest{
		Education: "BSc",
		Timezone:  "Mars/Olympus",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTutorProfileCreateDefaultsTimezone(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{}}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "Asia/Jakarta")

	profile, err := svc.Create(context.Background(), "user-1", CreateTutorProfileRequest{Education: "BSc"})
	require.NoError(t, err)
	assert.Equal(t, "Asia/Jakarta", profile.Timezone)
}

func TestTutorProfileCreateUnknownCategory(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{}, categoryCount: 1}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	_, err := svc.Create(context.Background(), "user-1", CreateTutorProfileRequest{
		Education:   "BSc",
		CategoryIDs: []string{"cat-1", "cat-missing"},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestTutorProfileUpdatePartial(t *testing.T) {
	existing := &models.TutorProfile{ID: "tutor-1", UserID: "user-1", Education: "BSc", Timezone: "UTC"}
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{"user-1": existing}}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	newRate := 50.0
	profile, err := svc.Update(context.Background(), "user-1", UpdateTutorProfileRequest{HourlyRate: &newRate})
	require.NoError(t, err)
	assert.Equal(t, "BSc", profile.Education)
	require.NotNil(t, profile.HourlyRate)
	assert.InDelta(t, 50.0, *profile.HourlyRate, 0.001)
	require.Len(t, repo.updated, 1)
}

func TestTutorProfileUpdateEvictsPublicView(t *testing.T) {
	existing := &models.TutorProfile{ID: "tutor-1", UserID: "user-1", Education: "BSc", Timezone: "UTC"}
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{"user-1": existing}}
	cache := &cacheStub{}
	svc := NewTutorService(repo, cache, nil, zap.NewNop(), "UTC")

	newRate := 50.0
	_, err := svc.Update(context.Background(), "user-1", UpdateTutorProfileRequest{HourlyRate: &newRate})
	require.NoError(t, err)
	assert.Equal(t, []string{"tutor:view:tutor-1"}, cache.deleted)
}

func TestTutorProfileUpdateWithoutProfile(t *testing.T) {
	repo := &tutorProfileRepoStub{byUserID: map[string]*models.TutorProfile{}}
	svc := NewTutorService(repo, nil, nil, zap.NewNop(), "UTC")

	_, err := svc.Update(context.Background(), "user-1", UpdateTutorProfileRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
