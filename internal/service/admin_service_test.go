package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

func newAdminFixture() (*AdminService, *userRepoStub) {
	repo := &userRepoStub{byEmail: map[string]*models.User{
		"admin@example.com":  {ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin, Active: true},
		"jamie@example.com":  {ID: "user-1", Email: "jamie@example.com", Role: models.RoleStudent, Active: true},
		"closed@example.com": {ID: "user-2", Email: "closed@example.com", Role: models.RoleStudent, Active: false},
	}}
	return NewAdminService(repo, zap.NewNop()), repo
}

func TestAdminListUsers(t *testing.T) {
	svc, _ := newAdminFixture()

	users, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 3)
}

func TestAdminGetUser(t *testing.T) {
	svc, _ := newAdminFixture()

	user, err := svc.GetUser(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, "jamie@example.com", user.Email)

	_, err = svc.GetUser(context.Background(), "user-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestAdminBanUser(t *testing.T) {
	svc, repo := newAdminFixture()

	user, err := svc.BanUser(context.Background(), "admin-1", "user-1")
	require.NoError(t, err)
	assert.False(t, user.Active)
	assert.False(t, repo.byEmail["jamie@example.com"].Active)
}

func TestAdminBanUserRejectsSelf(t *testing.T) {
	svc, _ := newAdminFixture()

	_, err := svc.BanUser(context.Background(), "admin-1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminBanUserAlreadyInactive(t *testing.T) {
	svc, _ := newAdminFixture()

	_, err := svc.BanUser(context.Background(), "admin-1", "user-2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidState.Code, appErrors.FromError(err).Code)
}

func TestAdminBanUserUnknown(t *testing.T) {
	svc, _ := newAdminFixture()

	_, err := svc.BanUser(context.Background(), "admin-1", "user-missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
