package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/edustack/tutorhub-api/internal/service"
	"github.com/edustack/tutorhub-api/pkg/response"
)

// PublicHandler serves the unauthenticated catalog surface.
type PublicHandler struct {
	public *service.PublicService
}

func NewPublicHandler(public *service.PublicService) *PublicHandler {
	return &PublicHandler{public: public}
}

// GetTutor godoc
// @Summary Public tutor profile with availability and rating
// @Tags Catalog
// @Produce json
// @Param id path string true "Tutor profile ID"
// @Success 200 {object} response.Envelope
// @Router /tutors/{id} [get]
func (h *PublicHandler) GetTutor(c *gin.Context) {
	view, err := h.public.GetTutor(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// ListCategories godoc
// @Summary List subject categories
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /categories [get]
func (h *PublicHandler) ListCategories(c *gin.Context) {
	categories, err := h.public.ListCategories(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, categories, nil)
}
