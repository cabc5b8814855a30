package handler

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/edustack/tutorhub-api/internal/models"
	"github.com/edustack/tutorhub-api/internal/service"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/export"
	"github.com/edustack/tutorhub-api/pkg/response"
)

type bookingService interface {
	Create(ctx context.Context, studentID string, req service.CreateBookingRequest) (*models.Booking, error)
	GetByID(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error)
	Cancel(ctx context.Context, callerID string, role models.UserRole, bookingID string) (*models.Booking, error)
	Complete(ctx context.Context, tutorUserID, bookingID string) (*models.Booking, error)
	List(ctx context.Context, callerID string, role models.UserRole, statusFilter string) ([]models.Booking, error)
	Statement(ctx context.Context, callerID string, role models.UserRole, statusFilter string) (export.Statement, error)
}

// BookingHandler wires the booking scheduler to HTTP routes.
type BookingHandler struct {
	bookings bookingService
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
}

// NewBookingHandler constructs a BookingHandler.
func NewBookingHandler(bookings bookingService) *BookingHandler {
	return &BookingHandler{
		bookings: bookings,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
	}
}

// Create godoc
// @Summary Book a session with a tutor
// @Tags Bookings
// @Accept json
// @Produce json
// @Param payload body service.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /bookings [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid booking payload"))
		return
	}
	claims := claimsFromContext(c)
	booking, err := h.bookings.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, booking)
}

// List godoc
// @Summary List the caller's bookings
// @Tags Bookings
// @Produce json
// @Param status query string false "Status filter (CONFIRMED, CANCELLED, COMPLETED, ALL)"
// @Success 200 {object} response.Envelope
// @Router /bookings [get]
func (h *BookingHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	bookings, err := h.bookings.List(c.Request.Context(), claims.UserID, claims.Role, strings.ToUpper(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// Get godoc
// @Summary Get one booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id} [get]
func (h *BookingHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	booking, err := h.bookings.GetByID(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Cancel godoc
// @Summary Cancel a booking
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/cancel [patch]
func (h *BookingHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	booking, err := h.bookings.Cancel(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Complete godoc
// @Summary Mark a booking completed (owning tutor only)
// @Tags Bookings
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /bookings/{id}/complete [patch]
func (h *BookingHandler) Complete(c *gin.Context) {
	claims := claimsFromContext(c)
	booking, err := h.bookings.Complete(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// Export godoc
// @Summary Download the caller's booking history as CSV or PDF
// @Tags Bookings
// @Param format query string false "Export format (csv or pdf)"
// @Param status query string false "Status filter"
// @Success 200
// @Router /bookings/export [get]
func (h *BookingHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	stmt, err := h.bookings.Statement(c.Request.Context(), claims.UserID, claims.Role, strings.ToUpper(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("bookings-%s", time.Now().UTC().Format("2006-01-02"))
	switch strings.ToLower(c.DefaultQuery("format", "csv")) {
	case "pdf":
		payload, err := h.pdf.Render(stmt, "Booking History")
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.pdf", filename))
		c.Data(http.StatusOK, "application/pdf", payload)
	case "csv":
		payload, err := h.csv.Render(stmt)
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv"))
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%s.csv", filename))
		c.Data(http.StatusOK, "text/csv", payload)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}
