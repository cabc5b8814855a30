package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
)

// clockTimePattern accepts zero-padded 24h "HH:MM" values only, so that
// lexicographic comparison of stored times matches chronological order.
var clockTimePattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)

type availabilityRepository interface {
	ListByTutor(ctx context.Context, tutorID string) ([]models.AvailabilitySlot, error)
	HasOverlap(ctx context.Context, tutorID string, dayOfWeek int, startTime, endTime string) (bool, error)
	Insert(ctx context.Context, slot *models.AvailabilitySlot) error
	ReplaceAll(ctx context.Context, tutorID string, slots []models.AvailabilitySlot) error
	Delete(ctx context.Context, slotID, tutorID string) error
}

type availabilityTutorRepository interface {
	FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error)
}

// AvailabilitySlotRequest is one weekly open-hours interval in a write call.
type AvailabilitySlotRequest struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required"`
	EndTime   string `json:"end_time" validate:"required"`
}

// AvailabilityService manages a tutor's recurring weekly availability.
type AvailabilityService struct {
	slots     availabilityRepository
	tutors    availabilityTutorRepository
	cache     profileCache
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAvailabilityService constructs an AvailabilityService.
func NewAvailabilityService(slots availabilityRepository, tutors availabilityTutorRepository, cache profileCache, validate *validator.Validate, logger *zap.Logger) *AvailabilityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AvailabilityService{slots: slots, tutors: tutors, cache: cache, validator: validate, logger: logger}
}

// List returns the calling tutor's slots.
func (s *AvailabilityService) List(ctx context.Context, tutorUserID string) ([]models.AvailabilitySlot, error) {
	profile, err := s.resolveProfile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}
	slots, err := s.slots.ListByTutor(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return slots, nil
}

// Add inserts a single slot, rejecting any overlap with the tutor's existing
// slots on that weekday.
func (s *AvailabilityService) Add(ctx context.Context, tutorUserID string, req AvailabilitySlotRequest) (*models.AvailabilitySlot, error) {
	profile, err := s.resolveProfile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}
	if err := s.validateSlot(req); err != nil {
		return nil, err
	}

	overlaps, err := s.slots.HasOverlap(ctx, profile.ID, req.DayOfWeek, req.StartTime, req.EndTime)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check slot overlap")
	}
	if overlaps {
		return nil, appErrors.Clone(appErrors.ErrConflict, "time slot conflicts with existing availability")
	}

	slot := &models.AvailabilitySlot{
		TutorID:   profile.ID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
	}
	if err := s.slots.Insert(ctx, slot); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to insert slot")
	}
	s.evictPublicView(ctx, profile.ID)
	return slot, nil
}

// Replace atomically swaps the tutor's whole slot set for the provided one.
// Each slot is validated individually; the new set is not cross-checked for
// mutual overlap, matching the single-slot path only at insertion time.
// Exact duplicates in the input collapse to one row.
func (s *AvailabilityService) Replace(ctx context.Context, tutorUserID string, reqs []AvailabilitySlotRequest) ([]models.AvailabilitySlot, error) {
	profile, err := s.resolveProfile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}
	slots := make([]models.AvailabilitySlot, 0, len(reqs))
	for _, req := range reqs {
		if err := s.validateSlot(req); err != nil {
			return nil, err
		}
		slots = append(slots, models.AvailabilitySlot{
			DayOfWeek: req.DayOfWeek,
			StartTime: req.StartTime,
			EndTime:   req.EndTime,
		})
	}
	if err := s.slots.ReplaceAll(ctx, profile.ID, slots); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace availability")
	}
	s.evictPublicView(ctx, profile.ID)
	stored, err := s.slots.ListByTutor(ctx, profile.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list availability")
	}
	return stored, nil
}

// Delete removes one slot owned by the calling tutor.
func (s *AvailabilityService) Delete(ctx context.Context, tutorUserID, slotID string) error {
	profile, err := s.resolveProfile(ctx, tutorUserID)
	if err != nil {
		return err
	}
	if err := s.slots.Delete(ctx, slotID, profile.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "availability slot not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete slot")
	}
	s.evictPublicView(ctx, profile.ID)
	return nil
}

// evictPublicView drops the cached public tutor view after a schedule write
// so readers never see availability the tutor has already changed.
func (s *AvailabilityService) evictPublicView(ctx context.Context, tutorID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, tutorViewCacheKey(tutorID))
	}
}

func (s *AvailabilityService) resolveProfile(ctx context.Context, tutorUserID string) (*models.TutorProfile, error) {
	profile, err := s.tutors.FindByUserID(ctx, tutorUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile")
	}
	return profile, nil
}

func (s *AvailabilityService) validateSlot(req AvailabilitySlotRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid slot payload")
	}
	if req.DayOfWeek < 0 || req.DayOfWeek > 6 {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid day of week: %d", req.DayOfWeek))
	}
	if !clockTimePattern.MatchString(req.StartTime) || !clockTimePattern.MatchString(req.EndTime) {
		return appErrors.Clone(appErrors.ErrValidation, "invalid time format, use HH:MM (24-hour, zero-padded)")
	}
	if req.StartTime >= req.EndTime {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("start time must be before end time: %s - %s", req.StartTime, req.EndTime))
	}
	return nil
}
