package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/edustack/tutorhub-api/internal/service"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/response"
)

// AdminHandler covers platform oversight: global booking visibility,
// administrative cancellation, user management and category management.
type AdminHandler struct {
	bookings bookingService
	admin    *service.AdminService
	public   *service.PublicService
}

func NewAdminHandler(bookings bookingService, admin *service.AdminService, public *service.PublicService) *AdminHandler {
	return &AdminHandler{bookings: bookings, admin: admin, public: public}
}

// ListBookings godoc
// @Summary List all bookings on the platform
// @Tags Admin
// @Produce json
// @Param status query string false "Status filter"
// @Success 200 {object} response.Envelope
// @Router /admin/bookings [get]
func (h *AdminHandler) ListBookings(c *gin.Context) {
	claims := claimsFromContext(c)
	bookings, err := h.bookings.List(c.Request.Context(), claims.UserID, claims.Role, strings.ToUpper(c.Query("status")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, bookings, nil)
}

// CancelBooking godoc
// @Summary Cancel any booking on behalf of a user
// @Tags Admin
// @Produce json
// @Param id path string true "Booking ID"
// @Success 200 {object} response.Envelope
// @Router /admin/bookings/{id}/cancel [patch]
func (h *AdminHandler) CancelBooking(c *gin.Context) {
	claims := claimsFromContext(c)
	booking, err := h.bookings.Cancel(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, booking, nil)
}

// ListUsers godoc
// @Summary List all accounts
// @Tags Admin
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /admin/users [get]
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.admin.ListUsers(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, users, nil)
}

// GetUser godoc
// @Summary Get one account
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id} [get]
func (h *AdminHandler) GetUser(c *gin.Context) {
	user, err := h.admin.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// BanUser godoc
// @Summary Deactivate an account
// @Tags Admin
// @Produce json
// @Param id path string true "User ID"
// @Success 200 {object} response.Envelope
// @Router /admin/users/{id}/ban [patch]
func (h *AdminHandler) BanUser(c *gin.Context) {
	claims := claimsFromContext(c)
	user, err := h.admin.BanUser(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

type createCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateCategory godoc
// @Summary Create a subject category
// @Tags Admin
// @Accept json
// @Produce json
// @Param payload body createCategoryRequest true "Category payload"
// @Success 201 {object} response.Envelope
// @Router /admin/categories [post]
func (h *AdminHandler) CreateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}
	category, err := h.public.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, category)
}

// UpdateCategory godoc
// @Summary Rename a subject category
// @Tags Admin
// @Accept json
// @Produce json
// @Param id path string true "Category ID"
// @Param payload body createCategoryRequest true "Category payload"
// @Success 200 {object} response.Envelope
// @Router /admin/categories/{id} [put]
func (h *AdminHandler) UpdateCategory(c *gin.Context) {
	var req createCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid category payload"))
		return
	}
	category, err := h.public.UpdateCategory(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, category, nil)
}

// DeleteCategory godoc
// @Summary Delete a subject category
// @Tags Admin
// @Param id path string true "Category ID"
// @Success 204
// @Router /admin/categories/{id} [delete]
func (h *AdminHandler) DeleteCategory(c *gin.Context) {
	if err := h.public.DeleteCategory(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
