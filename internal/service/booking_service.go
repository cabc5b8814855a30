package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/repository"
	"github.com/edustack/tutorhub-api/pkg/config"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/export"
)

type bookingRepository interface {
	CreateConfirmed(ctx context.Context, booking *models.Booking, window models.BookingWindow) error
	FindByID(ctx context.Context, id string) (*models.Booking, error)
	FindForTutor(ctx context.Context, id, tutorID string) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	UpdateStatus(ctx context.Context, id string, from, to models.BookingStatus) error
}

type bookingTutorRepository interface {
	FindByID(ctx context.Context, id string) (*models.TutorProfile, error)
	FindByUserID(ctx context.Context, userID string) (*models.TutorProfile, error)
}

// CreateBookingRequest represents the payload for reserving a session.
type CreateBookingRequest struct {
	TutorID string    `json:"tutor_id" validate:"required"`
	Subject string    `json:"subject" validate:"required"`
	StartAt time.Time `json:"start_at" validate:"required"`
	EndAt   time.Time `json:"end_at" validate:"required"`
	Notes   *string   `json:"notes" validate:"omitempty,max=2000"`
}

// BookingService is the scheduling core: it admits bookings against a tutor's
// availability and existing calendar, and drives the lifecycle transitions.
type BookingService struct {
	bookings  bookingRepository
	tutors    bookingTutorRepository
	validator *validator.Validate
	logger    *zap.Logger
	metrics   *MetricsService
	cfg       config.BookingConfig
	now       func() time.Time
}

// NewBookingService constructs a BookingService.
func NewBookingService(bookings bookingRepository, tutors bookingTutorRepository, validate *validator.Validate, logger *zap.Logger, metrics *MetricsService, cfg config.BookingConfig) *BookingService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MinDuration <= 0 {
		cfg.MinDuration = 30 * time.Minute
	}
	if cfg.MaxDuration <= 0 {
		cfg.MaxDuration = 3 * time.Hour
	}
	if cfg.DefaultTimezone == "" {
		cfg.DefaultTimezone = "UTC"
	}
	return &BookingService{
		bookings:  bookings,
		tutors:    tutors,
		validator: validate,
		logger:    logger,
		metrics:   metrics,
		cfg:       cfg,
		now:       time.Now,
	}
}

// Create validates the requested session and admits it as CONFIRMED. The
// conflict scan against existing bookings and the availability coverage check
// run inside one store transaction serialized per tutor, so concurrent
// requests for overlapping intervals cannot both succeed.
func (s *BookingService) Create(ctx context.Context, studentID string, req CreateBookingRequest) (*models.Booking, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid booking payload")
	}

	tutor, err := s.tutors.FindByID(ctx, req.TutorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor")
	}
	if tutor.UserID == studentID {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book a session with yourself")
	}

	now := s.now()
	if !req.EndAt.After(req.StartAt) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "end time must be after start time")
	}
	// Availability coverage compares wall-clock minutes, so sub-minute
	// precision in the interval would slip past the check.
	if !req.StartAt.Equal(req.StartAt.Truncate(time.Minute)) || !req.EndAt.Equal(req.EndAt.Truncate(time.Minute)) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "start and end times must be aligned to whole minutes")
	}
	if !req.StartAt.After(now) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "cannot book sessions in the past")
	}
	duration := req.EndAt.Sub(req.StartAt)
	if duration < s.cfg.MinDuration {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session must be at least %s", s.cfg.MinDuration))
	}
	if duration > s.cfg.MaxDuration {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("session cannot exceed %s", s.cfg.MaxDuration))
	}

	window, err := s.localWindow(req.StartAt, req.EndAt, tutor.Timezone)
	if err != nil {
		return nil, err
	}

	price := 0.0
	if tutor.HourlyRate != nil {
		price = *tutor.HourlyRate * duration.Hours()
	}

	booking := &models.Booking{
		StudentID: studentID,
		TutorID:   tutor.ID,
		Subject:   req.Subject,
		Notes:     req.Notes,
		StartAt:   req.StartAt,
		EndAt:     req.EndAt,
		Price:     price,
	}

	if err := s.bookings.CreateConfirmed(ctx, booking, window); err != nil {
		switch {
		case errors.Is(err, repository.ErrBookingOverlap):
			s.metrics.BookingConflict("existing_booking")
			return nil, appErrors.Clone(appErrors.ErrConflict, "tutor not available: existing booking")
		case errors.Is(err, repository.ErrOutsideAvailability):
			s.metrics.BookingConflict("outside_availability")
			return nil, appErrors.Clone(appErrors.ErrConflict, "tutor not available: outside published hours")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create booking")
	}

	s.metrics.BookingCreated()
	s.logger.Info("booking created",
		zap.String("booking_id", booking.ID),
		zap.String("tutor_id", booking.TutorID),
		zap.Time("start_at", booking.StartAt),
	)
	return booking, nil
}

// GetByID loads one booking, enforcing visibility: students see their own
// bookings, tutors see bookings against their profile, admins see all.
func (s *BookingService) GetByID(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	switch role {
	case models.RoleStudent:
		if booking.StudentID != callerID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "")
		}
	case models.RoleTutor:
		profile, err := s.resolveProfile(ctx, callerID)
		if err != nil {
			return nil, err
		}
		if booking.TutorID != profile.ID {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "")
		}
	}
	return booking, nil
}

// Cancel transitions a CONFIRMED booking to CANCELLED. Students may cancel
// only their own bookings; admins may cancel any.
func (s *BookingService) Cancel(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error) {
	booking, err := s.GetByID(ctx, callerID, role, bookingID)
	if err != nil {
		return nil, err
	}

	switch booking.Status {
	case models.BookingCancelled:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "booking already cancelled")
	case models.BookingCompleted:
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot cancel a completed booking")
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingConfirmed, models.BookingCancelled); err != nil {
		if errors.Is(err, repository.ErrBookingStateChanged) {
			return nil, s.staleTransition(ctx, booking.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel booking")
	}
	booking.Status = models.BookingCancelled
	s.metrics.BookingCancelled()
	return booking, nil
}

// Complete transitions a CONFIRMED booking to COMPLETED. Only the owning
// tutor may complete, and only after the session end time has passed.
func (s *BookingService) Complete(ctx context.Context, tutorUserID, bookingID string) (*models.Booking, error) {
	profile, err := s.resolveProfile(ctx, tutorUserID)
	if err != nil {
		return nil, err
	}

	booking, err := s.bookings.FindForTutor(ctx, bookingID, profile.ID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "booking not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load booking")
	}

	if booking.Status != models.BookingConfirmed {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "only confirmed bookings can be completed")
	}
	if s.now().Before(booking.EndAt) {
		return nil, appErrors.Clone(appErrors.ErrInvalidState, "cannot complete booking before its end time")
	}

	if err := s.bookings.UpdateStatus(ctx, booking.ID, models.BookingConfirmed, models.BookingCompleted); err != nil {
		if errors.Is(err, repository.ErrBookingStateChanged) {
			return nil, s.staleTransition(ctx, booking.ID)
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to complete booking")
	}
	booking.Status = models.BookingCompleted
	s.metrics.BookingCompleted()
	return booking, nil
}

// List returns the caller's bookings, most recent start first. Students list
// their own, tutors list via their profile, admins list everything. The
// optional status filter accepts a lifecycle state or "ALL".
func (s *BookingService) List(ctx context.Context, callerID string, role models.UserRole, statusFilter string) ([]models.Booking, error) {
	filter := models.BookingFilter{}

	switch role {
	case models.RoleStudent:
		filter.StudentID = callerID
	case models.RoleTutor:
		profile, err := s.resolveProfile(ctx, callerID)
		if err != nil {
			return nil, err
		}
		filter.TutorID = profile.ID
	}

	if statusFilter != "" && statusFilter != "ALL" {
		status := models.BookingStatus(statusFilter)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown booking status: %s", statusFilter))
		}
		filter.Status = &status
	}

	bookings, err := s.bookings.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bookings")
	}
	return bookings, nil
}

// Statement builds a tabular export of the caller's bookings with a total
// over non-cancelled session prices.
func (s *BookingService) Statement(ctx context.Context, callerID string, role models.UserRole, statusFilter string) (export.Statement, error) {
	bookings, err := s.List(ctx, callerID, role, statusFilter)
	if err != nil {
		return export.Statement{}, err
	}

	stmt := export.Statement{
		Headers: []string{"Subject", "Start", "End", "Status", "Price"},
		Rows:    make([]map[string]string, 0, len(bookings)),
	}
	total := 0.0
	for _, b := range bookings {
		stmt.Rows = append(stmt.Rows, map[string]string{
			"Subject": b.Subject,
			"Start":   b.StartAt.Format(time.RFC3339),
			"End":     b.EndAt.Format(time.RFC3339),
			"Status":  string(b.Status),
			"Price":   fmt.Sprintf("%.2f", b.Price),
		})
		if b.Status != models.BookingCancelled {
			total += b.Price
		}
	}
	stmt.Footer = map[string]string{"Subject": "Total", "Price": fmt.Sprintf("%.2f", total)}
	return stmt, nil
}

// staleTransition re-reads a booking after a compare-and-set miss so the
// error names the state that actually won the race.
func (s *BookingService) staleTransition(ctx context.Context, bookingID string) error {
	current, err := s.bookings.FindByID(ctx, bookingID)
	if err != nil {
		return appErrors.Clone(appErrors.ErrInvalidState, "booking is no longer confirmed")
	}
	switch current.Status {
	case models.BookingCancelled:
		return appErrors.Clone(appErrors.ErrInvalidState, "booking already cancelled")
	case models.BookingCompleted:
		return appErrors.Clone(appErrors.ErrInvalidState, "booking already completed")
	}
	return appErrors.Clone(appErrors.ErrInvalidState, "booking is no longer confirmed")
}

func (s *BookingService) resolveProfile(ctx context.Context, tutorUserID string) (*models.TutorProfile, error) {
	profile, err := s.tutors.FindByUserID(ctx, tutorUserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "tutor profile not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load tutor profile")
	}
	return profile, nil
}

// localWindow projects the absolute interval into the tutor's time zone to
// get the weekday and wall-clock bounds the availability model is keyed on.
// Sessions crossing local midnight can never fit a single-day slot and are
// rejected outright.
func (s *BookingService) localWindow(startAt, endAt time.Time, timezone string) (models.BookingWindow, error) {
	if timezone == "" {
		timezone = s.cfg.DefaultTimezone
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		s.logger.Warn("invalid tutor timezone, falling back to default", zap.String("timezone", timezone), zap.Error(err))
		loc, err = time.LoadLocation(s.cfg.DefaultTimezone)
		if err != nil {
			loc = time.UTC
		}
	}

	start := startAt.In(loc)
	end := endAt.In(loc)
	if start.Year() != end.Year() || start.YearDay() != end.YearDay() {
		return models.BookingWindow{}, appErrors.Clone(appErrors.ErrConflict, "tutor not available: outside published hours")
	}

	return models.BookingWindow{
		DayOfWeek: int(start.Weekday()),
		StartTime: start.Format("15:04"),
		EndTime:   end.Format("15:04"),
	}, nil
}
