package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/tutorhub-api/internal/service"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/response"
)

// TutorHandler wires tutor profile and availability management to HTTP
// routes. All routes require the TUTOR role.
type TutorHandler struct {
	tutors       *service.TutorService
	availability *service.AvailabilityService
}

// NewTutorHandler constructs a TutorHandler.
func NewTutorHandler(tutors *service.TutorService, availability *service.AvailabilityService) *TutorHandler {
	return &TutorHandler{tutors: tutors, availability: availability}
}

// CreateProfile godoc
// @Summary Open the calling user's tutor profile
// @Tags Tutors
// @Accept json
// @Produce json
// @Param payload body service.CreateTutorProfileRequest true "Profile payload"
// @Success 201 {object} response.Envelope
// @Router /tutors/me [post]
func (h *TutorHandler) CreateProfile(c *gin.Context) {
	var req service.CreateTutorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	claims := claimsFromContext(c)
	profile, err := h.tutors.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, profile)
}

// GetProfile godoc
// @Summary Get the calling user's tutor profile
// @Tags Tutors
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tutors/me [get]
func (h *TutorHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	profile, err := h.tutors.GetOwn(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// UpdateProfile godoc
// @Summary Update the calling user's tutor profile
// @Tags Tutors
// @Accept json
// @Produce json
// @Param payload body service.UpdateTutorProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /tutors/me [put]
func (h *TutorHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateTutorProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid profile payload"))
		return
	}
	claims := claimsFromContext(c)
	profile, err := h.tutors.Update(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ListAvailability godoc
// @Summary List the calling tutor's weekly availability
// @Tags Availability
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /tutors/me/availability [get]
func (h *TutorHandler) ListAvailability(c *gin.Context) {
	claims := claimsFromContext(c)
	slots, err := h.availability.List(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// AddAvailability godoc
// @Summary Add a single availability slot
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body service.AvailabilitySlotRequest true "Slot payload"
// @Success 201 {object} response.Envelope
// @Router /tutors/me/availability [post]
func (h *TutorHandler) AddAvailability(c *gin.Context) {
	var req service.AvailabilitySlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	claims := claimsFromContext(c)
	slot, err := h.availability.Add(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// ReplaceAvailability godoc
// @Summary Replace the whole weekly availability set
// @Tags Availability
// @Accept json
// @Produce json
// @Param payload body []service.AvailabilitySlotRequest true "Slot set"
// @Success 200 {object} response.Envelope
// @Router /tutors/me/availability [put]
func (h *TutorHandler) ReplaceAvailability(c *gin.Context) {
	var reqs []service.AvailabilitySlotRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid slot payload"))
		return
	}
	claims := claimsFromContext(c)
	slots, err := h.availability.Replace(c.Request.Context(), claims.UserID, reqs)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// DeleteAvailability godoc
// @Summary Delete one availability slot
// @Tags Availability
// @Param id path string true "Slot ID"
// @Success 204
// @Router /tutors/me/availability/{id} [delete]
func (h *TutorHandler) DeleteAvailability(c *gin.Context) {
	claims := claimsFromContext(c)
	if err := h.availability.Delete(c.Request.Context(), claims.UserID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
