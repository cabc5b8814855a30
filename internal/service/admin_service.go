package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

type adminUserRepository interface {
	List(ctx context.Context) ([]models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	SetActive(ctx context.Context, id string, active bool) error
}

// AdminService covers platform user oversight: account listing, detail and
// deactivation.
type AdminService struct {
	users  adminUserRepository
	logger *zap.Logger
}

// NewAdminService constructs an AdminService.
func NewAdminService(users adminUserRepository, logger *zap.Logger) *AdminService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminService{users: users, logger: logger}
}

// ListUsers returns every account, newest first.
func (s *AdminService) ListUsers(ctx context.Context) ([]models.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	return users, nil
}

// GetUser returns one account by ID.
func (s *AdminService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

// BanUser deactivates an account so it can no longer log in. Admins cannot
// ban themselves, and an already inactive account is rejected.
func (s *AdminService) BanUser(ctx context.Context, adminID, userID string) (*models.User, error) {
	if adminID == userID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot ban your own account")
	}

	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.Active {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "account already deactivated")
	}

	if err := s.users.SetActive(ctx, userID, false); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate account")
	}
	user.Active = false

	s.logger.Info("account deactivated",
		zap.String("user_id", userID),
		zap.String("admin_id", adminID),
	)
	return user, nil
}
