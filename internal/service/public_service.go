package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/repository"
	"github.com/edustack/tutorhub-api/pkg/config"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

const categoriesCacheKey = "catalog:categories"

func tutorViewCacheKey(tutorID string) string {
	return fmt.Sprintf("tutor:view:%s", tutorID)
}

type publicTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorProfile, error)
	CategoriesForTutor(ctx context.Context, tutorID string) ([]models.Category, error)
}

type publicUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type publicAvailabilityRepository interface {
	ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilitySlot, error)
}

type categoryRepository interface {
	List(ctx context.Context) ([]models.Category, error)
	FindByID(ctx context.Context, id string) (*models.Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	Create(ctx context.Context, category *models.Category) error
	Update(ctx context.Context, category *models.Category) error
	Delete(ctx context.Context, id string) error
}

// PublicService serves the unauthenticated read surface: one tutor's public
// view and the category catalog. Reads go through the Redis cache when it is
// enabled.
type PublicService struct {
	tutors       publicTutorRepository
	users        publicUserRepository
	availability publicAvailabilityRepository
	categories   categoryRepository
	cache        *repository.CacheRepository
	logger       *zap.Logger
	cacheCfg     config.CacheConfig
}

// NewPublicService constructs a PublicService.
func NewPublicService(tutors publicTutorRepository, users publicUserRepository, availability publicAvailabilityRepository, categories categoryRepository, cache *repository.CacheRepository, logger *zap.Logger, cacheCfg config.CacheConfig) *PublicService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PublicService{
		tutors:       tutors,
		users:        users,
		availability: availability,
		categories:   categories,
		cache:        cache,
		logger:       logger,
		cacheCfg:     cacheCfg,
	}
}

// GetTutor assembles the public view of one tutor profile.
func (s *PublicService) GetTutor(ctx context.Context, tutorID string) (*models.TutorPublicView, error) {
	key := tutorViewCacheKey(tutorID)
	if s.cacheCfg.Enabled && s.cache != nil {
		var cached models.TutorPublicView
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("tutor view cache read failed", zap.Error(err))
		}
	}

	profile, err := s.tutors.FindByID(ctx, tutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}

	owner, err := s.users.FindByID(ctx, profile.UserID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor account")
	}

	categories, err := s.tutors.CategoriesForTutor(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load categories")
	}
	profile.Categories = categories

	slots, err := s.availability.ListByTutor(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load availability")
	}

	view := &models.TutorPublicView{
		Profile: *profile,
		User: models.UserInfo{
			ID:       owner.ID,
			Email:    owner.Email,
			FullName: owner.FullName,
			Role:     owner.Role,
		},
		Availability: slots,
	}

	if s.cacheCfg.Enabled && s.cache != nil {
		if err := s.cache.Set(ctx, key, view, s.cacheCfg.TutorProfileTTL); err != nil {
			s.logger.Warn("tutor view cache write failed", zap.Error(err))
		}
	}
	return view, nil
}

// ListCategories returns the category catalog.
func (s *PublicService) ListCategories(ctx context.Context) ([]models.Category, error) {
	if s.cacheCfg.Enabled && s.cache != nil {
		var cached []models.Category
		if err := s.cache.Get(ctx, categoriesCacheKey, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, repository.ErrCacheMiss) {
			s.logger.Warn("categories cache read failed", zap.Error(err))
		}
	}

	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list categories")
	}

	if s.cacheCfg.Enabled && s.cache != nil {
		if err := s.cache.Set(ctx, categoriesCacheKey, categories, s.cacheCfg.CategoriesTTL); err != nil {
			s.logger.Warn("categories cache write failed", zap.Error(err))
		}
	}
	return categories, nil
}

// CreateCategory adds a category to the catalog (admin only, enforced at the
// route level) and evicts the cached list.
func (s *PublicService) CreateCategory(ctx context.Context, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category name is required")
	}

	exists, err := s.categories.ExistsByName(ctx, name)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "category already exists")
	}

	category := &models.Category{Name: name}
	if err := s.categories.Create(ctx, category); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create category")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, categoriesCacheKey)
	}
	return category, nil
}

// UpdateCategory renames a category and evicts the cached list.
func (s *PublicService) UpdateCategory(ctx context.Context, id, name string) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "category name is required")
	}

	category, err := s.categories.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load category")
	}

	if !strings.EqualFold(category.Name, name) {
		exists, err := s.categories.ExistsByName(ctx, name)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check category")
		}
		if exists {
			return nil, appErrors.Clone(appErrors.ErrConflict, "category already exists")
		}
	}

	category.Name = name
	if err := s.categories.Update(ctx, category); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update category")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, categoriesCacheKey)
	}
	return category, nil
}

// DeleteCategory removes a category, detaching it from tutor profiles, and
// evicts the cached list.
func (s *PublicService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.categories.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "category not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete category")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, categoriesCacheKey)
	}
	return nil
}
