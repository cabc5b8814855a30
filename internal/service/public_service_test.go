package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/pkg/config"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

type categoryRepoStub struct {
	items   []models.Category
	names   map[string]bool
	created []*models.Category
	updated []*models.Category
	deleted []string
}

func (s *categoryRepoStub) List(ctx context.Context) ([]models.Category, error) {
	return s.items, nil
}

func (s *categoryRepoStub) FindByID(ctx context.Context, id string) (*models.Category, error) {
	for _, c := range s.items {
		if c.ID == id {
			copied := c
			return &copied, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *categoryRepoStub) ExistsByName(ctx context.Context, name string) (bool, error) {
	return s.names[name], nil
}

func (s *categoryRepoStub) Create(ctx context.Context, category *models.Category) error {
	category.ID = "cat-new"
	s.created = append(s.created, category)
	return nil
}

func (s *categoryRepoStub) Update(ctx context.Context, category *models.Category) error {
	if _, err := s.FindByID(ctx, category.ID); err != nil {
		return err
	}
	s.updated = append(s.updated, category)
	return nil
}

func (s *categoryRepoStub) Delete(ctx context.Context, id string) error {
	if _, err := s.FindByID(ctx, id); err != nil {
		return err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func newPublicFixture() (*PublicService, *categoryRepoStub) {
	tutor := &models.TutorProfile{ID: "tutor-1", UserID: "user-1", Education: "BSc", Timezone: "UTC"}
	tutors := &tutorProfileRepoStub{
		byUserID:   map[string]*models.TutorProfile{"user-1": tutor},
		categories: []models.Category{{ID: "cat-1", Name: "Math"}},
	}
	users := &userRepoStub{byEmail: map[string]*models.User{
		"jamie@example.com": {ID: "user-1", Email: "jamie@example.com", FullName: "Jamie Doe", Role: models.RoleTutor},
	}}
	availability := &availabilityRepoStub{slots: []models.AvailabilitySlot{
		{ID: "slot-1", TutorID: "tutor-1", DayOfWeek: 1, StartTime: "09:00", EndTime: "12:00"},
	}}
	categories := &categoryRepoStub{names: map[string]bool{}}
	svc := NewPublicService(tutors, users, availability, categories, nil, zap.NewNop(), config.CacheConfig{})
	return svc, categories
}

func TestPublicGetTutorAssemblesView(t *testing.T) {
	svc, _ := newPublicFixture()

	view, err := svc.GetTutor(context.Background(), "tutor-1")
	require.NoError(t, err)
	assert.Equal(t, "tutor-1", view.Profile.ID)
	assert.Equal(t, "Jamie Doe", view.User.FullName)
	require.Len(t, view.Profile.Categories, 1)
	require.Len(t, view.Availability, 1)
}

func TestPublicGetTutorNotFound(t *testing.T) {
	svc, _ := newPublicFixture()

	_, err := svc.GetTutor(context.Background(), "tutor-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublicCreateCategory(t *testing.T) {
	svc, repo := newPublicFixture()

	category, err := svc.CreateCategory(context.Background(), "  Physics ")
	require.NoError(t, err)
	assert.Equal(t, "Physics", category.Name)
	require.Len(t, repo.created, 1)
}

func TestPublicCreateCategoryDuplicate(t *testing.T) {
	svc, repo := newPublicFixture()
	repo.names["Physics"] = true

	_, err := svc.CreateCategory(context.Background(), "Physics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPublicCreateCategoryEmptyName(t *testing.T) {
	svc, _ := newPublicFixture()

	_, err := svc.CreateCategory(context.Background(), "   ")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPublicUpdateCategory(t *testing.T) {
	svc, repo := newPublicFixture()
	repo.items = []models.Category{{ID: "cat-1", Name: "Math"}}

	category, err := svc.UpdateCategory(context.Background(), "cat-1", "  Mathematics ")
	require.NoError(t, err)
	assert.Equal(t, "Mathematics", category.Name)
	require.Len(t, repo.updated, 1)
}

func TestPublicUpdateCategoryDuplicateName(t *testing.T) {
	svc, repo := newPublicFixture()
	repo.items = []models.Category{{ID: "cat-1", Name: "Math"}}
	repo.names["Physics"] = true

	_, err := svc.UpdateCategory(context.Background(), "cat-1", "Physics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.updated)
}

func TestPublicUpdateCategoryNotFound(t *testing.T) {
	svc, _ := newPublicFixture()

	_, err := svc.UpdateCategory(context.Background(), "cat-missing", "Physics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestPublicDeleteCategory(t *testing.T) {
	svc, repo := newPublicFixture()
	repo.items = []models.Category{{ID: "cat-1", Name: "Math"}}

	require.NoError(t, svc.DeleteCategory(context.Background(), "cat-1"))
	assert.Equal(t, []string{"cat-1"}, repo.deleted)

	err := svc.DeleteCategory(context.Background(), "cat-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
