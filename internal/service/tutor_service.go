package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

// profileCache is the slice of the cache layer the write paths use to evict
// stale public tutor views.
type profileCache interface {
	Delete(ctx context.Context, keys ...string)
}

type tutorProfileRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error)
	Create(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error
	Update(ctx context.Context, profile *models.TutorProfile, categoryIDs []string) error
	CategoriesForTutor(ctx context.Context, tutorID string) ([]models.Category, error)
	CountCategories(ctx context.Context, categoryIDs []string) (int, error)
}

// CreateTutorProfileRequest represents the payload for opening a tutor
// profile.
type CreateTutorProfileRequest struct {
	Bio         *string  `json:"bio" validate:"omitempty,max=2000"`
	Education   string   `json:"education" validate:"required"`
	HourlyRate  *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	Timezone    string   `json:"timezone" validate:"omitempty"`
	CategoryIDs []string `json:"category_ids"`
}

// UpdateTutorProfileRequest represents the payload for editing a tutor
// profile. CategoryIDs nil leaves the category set untouched.
type UpdateTutorProfileRequest struct {
	Bio         *string  `json:"bio" validate:"omitempty,max=2000"`
	Education   *string  `json:"education"`
	HourlyRate  *float64 `json:"hourly_rate" validate:"omitempty,gte=0"`
	Timezone    *string  `json:"timezone"`
	CategoryIDs []string `json:"category_ids"`
}

// TutorService manages the teaching-side profile.
type TutorService struct {
	tutors          tutorProfileRepository
	cache           profileCache
	validator       *validator.Validate
	logger          *zap.Logger
	defaultTimezone string
}

// NewTutorService constructs a TutorService.
func NewTutorService(tutors tutorProfileRepository, cache profileCache, validate *validator.Validate, logger *zap.Logger, defaultTimezone string) *TutorService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if defaultTimezone == "" {
		defaultTimezone = "UTC"
	}
	return &TutorService{tutors: tutors, cache: cache, validator: validate, logger: logger, defaultTimezone: defaultTimezone}
}

// Create opens the tutor profile for a user. A user may hold at most one.
func (s *TutorService) Create(ctx context.Context, userID string, req CreateTutorProfileRequest) (*models.TutorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	if _, err := s.tutors.FindByUserID(ctx, userID); err == nil {
		return nil, appErrors.Clone(appErrors.ErrConflict, "tutor profile already exists for this user")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check profile")
	}

	timezone, err := s.normalizeTimezone(req.Timezone)
	if err != nil {
		return nil, err
	}
	if err := s.validateCategories(ctx, req.CategoryIDs); err != nil {
		return nil, err
	}

	profile := &models.TutorProfile{
		UserID:     userID,
		Bio:        req.Bio,
		Education:  strings.TrimSpace(req.Education),
		HourlyRate: req.HourlyRate,
		Timezone:   timezone,
	}
	if err := s.tutors.Create(ctx, profile, req.CategoryIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create profile")
	}
	return s.withCategories(ctx, profile)
}

// GetOwn returns the calling user's profile with categories.
func (s *TutorService) GetOwn(ctx context.Context, userID string) (*models.TutorProfile, error) {
	profile, err := s.tutors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}
	return s.withCategories(ctx, profile)
}

// Update edits the calling user's profile and evicts its cached public view.
func (s *TutorService) Update(ctx context.Context, userID string, req UpdateTutorProfileRequest) (*models.TutorProfile, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid profile payload")
	}

	profile, err := s.tutors.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load profile")
	}

	if req.Bio != nil {
		profile.Bio = req.Bio
	}
	if req.Education != nil {
		education := strings.TrimSpace(*req.Education)
		if education == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "education cannot be empty")
		}
		profile.Education = education
	}
	if req.HourlyRate != nil {
		profile.HourlyRate = req.HourlyRate
	}
	if req.Timezone != nil {
		timezone, err := s.normalizeTimezone(*req.Timezone)
		if err != nil {
			return nil, err
		}
		profile.Timezone = timezone
	}
	if req.CategoryIDs != nil {
		if err := s.validateCategories(ctx, req.CategoryIDs); err != nil {
			return nil, err
		}
	}

	if err := s.tutors.Update(ctx, profile, req.CategoryIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update profile")
	}

	if s.cache != nil {
		s.cache.Delete(ctx, tutorViewCacheKey(profile.ID))
	}
	return s.withCategories(ctx, profile)
}

func (s *TutorService) withCategories(ctx context.Context, profile *models.TutorProfile) (*models.TutorProfile, error) {
	categories, err := s.tutors.CategoriesForTutor(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load categories")
	}
	profile.Categories = categories
	return profile, nil
}

func (s *TutorService) validateCategories(ctx context.Context, categoryIDs []string) error {
	if len(categoryIDs) == 0 {
		return nil
	}
	count, err := s.tutors.CountCategories(ctx, categoryIDs)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check categories")
	}
	if count != len(categoryIDs) {
		return appErrors.Clone(appErrors.ErrValidation, "one or more category ids are invalid")
	}
	return nil
}

func (s *TutorService) normalizeTimezone(timezone string) (string, error) {
	timezone = strings.TrimSpace(timezone)
	if timezone == "" {
		return s.defaultTimezone, nil
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return "", appErrors.Clone(appErrors.ErrValidation, "invalid timezone, use an IANA zone name")
	}
	return timezone, nil
}
