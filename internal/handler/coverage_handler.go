package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/service"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
	"github.com/ohsched/office-hours-api/pkg/response"
)

// CoverageHandler exposes host assignment and per-occurrence edits.
type CoverageHandler struct {
	service *service.CoverageService
}

// NewCoverageHandler creates a new coverage handler.
func NewCoverageHandler(svc *service.CoverageService) *CoverageHandler {
	return &CoverageHandler{service: svc}
}

// Assign godoc
// @Summary Assign host
// @Description Assign a candidate host to an instance. Non-admins may only claim for themselves.
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body dto.AssignHostRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /coverage/assign [post]
func (h *CoverageHandler) Assign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.AssignHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	inst, err := h.service.AssignHost(c.Request.Context(), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inst, nil)
}

// Unassign godoc
// @Summary Unassign host
// @Description Remove the current host from an instance. Non-admins may only release their own claim.
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body dto.UnassignHostRequest true "Unassignment payload"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /coverage/unassign [post]
func (h *CoverageHandler) Unassign(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.UnassignHostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid unassignment payload"))
		return
	}

	inst, err := h.service.UnassignHost(c.Request.Context(), req, claims.UserID, claims.Role)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inst, nil)
}

// Cancel godoc
// @Summary Cancel occurrence
// @Description Tombstone a single occurrence without touching the series
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body dto.CancelOccurrenceRequest true "Cancellation payload"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /coverage/cancel [post]
func (h *CoverageHandler) Cancel(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CancelOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid cancellation payload"))
		return
	}

	inst, err := h.service.CancelOccurrence(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inst, nil)
}

// Reschedule godoc
// @Summary Reschedule occurrence
// @Description Move a single occurrence in time without touching the series
// @Tags Coverage
// @Accept json
// @Produce json
// @Param payload body dto.RescheduleOccurrenceRequest true "Reschedule payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /coverage/reschedule [post]
func (h *CoverageHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.RescheduleOccurrenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reschedule payload"))
		return
	}

	inst, err := h.service.RescheduleOccurrence(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, inst, nil)
}
