package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/edustack/tutorhub-api/internal/service"
	appErrors "github.com/edustack/tutorhub-api/pkg/errors"
	"github.com/edustack/tutorhub-api/pkg/response"
)

// ReviewHandler exposes review submission and read endpoints.
type ReviewHandler struct {
	reviews *service.ReviewService
}

func NewReviewHandler(reviews *service.ReviewService) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// Create godoc
// @Summary Review a completed session
// @Tags Reviews
// @Accept json
// @Produce json
// @Param payload body service.CreateReviewRequest true "Review payload"
// @Success 201 {object} response.Envelope
// @Router /reviews [post]
func (h *ReviewHandler) Create(c *gin.Context) {
	var req service.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid review payload"))
		return
	}
	claims := claimsFromContext(c)
	review, err := h.reviews.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, review)
}

// ListMine godoc
// @Summary List reviews written by the caller
// @Tags Reviews
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /reviews/me [get]
func (h *ReviewHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	reviews, err := h.reviews.ListMine(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, nil)
}

// ListForTutor godoc
// @Summary List reviews received by a tutor
// @Tags Reviews
// @Produce json
// @Param id path string true "Tutor profile ID"
// @Param page query int false "Page number"
// @Param size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id}/reviews [get]
func (h *ReviewHandler) ListForTutor(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	reviews, pagination, err := h.reviews.ListForTutor(c.Request.Context(), c.Param("id"), page, size)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reviews, pagination)
}
