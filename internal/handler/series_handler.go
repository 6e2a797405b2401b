package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/service"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
	"github.com/ohsched/office-hours-api/pkg/response"
)

// SeriesHandler exposes recurring series management.
type SeriesHandler struct {
	service *service.SeriesService
}

// NewSeriesHandler creates a new series handler.
func NewSeriesHandler(svc *service.SeriesService) *SeriesHandler {
	return &SeriesHandler{service: svc}
}

// List godoc
// @Summary List series
// @Description List all recurring series templates
// @Tags Series
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /series [get]
func (h *SeriesHandler) List(c *gin.Context) {
	series, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, series, nil)
}

// Get godoc
// @Summary Get series
// @Description Get a single series template
// @Tags Series
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /series/{id} [get]
func (h *SeriesHandler) Get(c *gin.Context) {
	series, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, series, nil)
}

// Create godoc
// @Summary Create series
// @Description Create a recurring series template
// @Tags Series
// @Accept json
// @Produce json
// @Param payload body dto.CreateSeriesRequest true "Series payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /series [post]
func (h *SeriesHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid series payload"))
		return
	}

	series, err := h.service.Create(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, series)
}

// Update godoc
// @Summary Update series
// @Description Update the mutable fields of a series template
// @Tags Series
// @Accept json
// @Produce json
// @Param id path string true "Series ID"
// @Param payload body dto.UpdateSeriesRequest true "Update payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /series/{id} [put]
func (h *SeriesHandler) Update(c *gin.Context) {
	var req dto.UpdateSeriesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid series payload"))
		return
	}

	series, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, series, nil)
}

// TogglePause godoc
// @Summary Toggle series pause
// @Description Flip the pause flag of a series
// @Tags Series
// @Produce json
// @Param id path string true "Series ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /series/{id}/pause [post]
func (h *SeriesHandler) TogglePause(c *gin.Context) {
	series, err := h.service.TogglePause(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, series, nil)
}

// Delete godoc
// @Summary Delete series
// @Description Delete a series template and its overrides
// @Tags Series
// @Produce json
// @Param id path string true "Series ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /series/{id} [delete]
func (h *SeriesHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
