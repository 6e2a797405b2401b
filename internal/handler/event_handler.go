package handler

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ohsched/office-hours-api/internal/dto"
	"github.com/ohsched/office-hours-api/internal/service"
	appErrors "github.com/ohsched/office-hours-api/pkg/errors"
	"github.com/ohsched/office-hours-api/pkg/response"
)

// EventHandler serves the materialized calendar projection.
type EventHandler struct {
	service *service.ProjectionService
}

// NewEventHandler creates a new event handler.
func NewEventHandler(svc *service.ProjectionService) *EventHandler {
	return &EventHandler{service: svc}
}

func bindWindow(c *gin.Context) (dto.WindowQuery, error) {
	var q dto.WindowQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return q, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid window query")
	}
	return q, nil
}

// List godoc
// @Summary List events
// @Description Materialize all event instances inside a window
// @Tags Events
// @Produce json
// @Param start_utc query int true "Window start (UTC nanoseconds)"
// @Param end_utc query int true "Window end (UTC nanoseconds)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [get]
func (h *EventHandler) List(c *gin.Context) {
	q, err := bindWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	instances, err := h.service.List(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instances, nil)
}

// ListPublic godoc
// @Summary List public events
// @Description Materialize the redacted public calendar inside a window
// @Tags Events
// @Produce json
// @Param start_utc query int true "Window start (UTC nanoseconds)"
// @Param end_utc query int true "Window end (UTC nanoseconds)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /public/events [get]
func (h *EventHandler) ListPublic(c *gin.Context) {
	q, err := bindWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	views, err := h.service.ListPublic(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, views, nil)
}

// Unclaimed godoc
// @Summary List unclaimed events
// @Description Host-less active instances inside the forward window
// @Tags Events
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /events/unclaimed [get]
func (h *EventHandler) Unclaimed(c *gin.Context) {
	instances, err := h.service.Unclaimed(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, instances, nil)
}

// CreateOneOff godoc
// @Summary Create one-off event
// @Description Create a standalone event outside any series
// @Tags Events
// @Accept json
// @Produce json
// @Param payload body dto.CreateOneOffEventRequest true "Event payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events [post]
func (h *EventHandler) CreateOneOff(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req dto.CreateOneOffEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid event payload"))
		return
	}

	inst, err := h.service.CreateOneOff(c.Request.Context(), req, claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, inst)
}

// DownloadICS godoc
// @Summary Download calendar invite
// @Description Render a single instance as an iCalendar file
// @Tags Events
// @Produce text/calendar
// @Param id path string true "Instance ID"
// @Success 200 {string} string "ICS payload"
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/ics [get]
func (h *EventHandler) DownloadICS(c *gin.Context) {
	payload, err := h.service.RenderICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", c.Param("id")+".ics"))
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(payload))
}

// CoverageHistory godoc
// @Summary Coverage history
// @Description Per-month totals of projected versus hosted instances
// @Tags Events
// @Produce json
// @Param months query int false "Number of trailing months (default 6)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /events/coverage [get]
func (h *EventHandler) CoverageHistory(c *gin.Context) {
	months, err := strconv.Atoi(c.DefaultQuery("months", "6"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "months must be an integer"))
		return
	}

	periods, err := h.service.CoverageHistory(c.Request.Context(), months)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, periods, nil)
}

// ExportCSV godoc
// @Summary Export events as CSV
// @Description Export the projected window as a CSV file
// @Tags Events
// @Produce text/csv
// @Param start_utc query int true "Window start (UTC nanoseconds)"
// @Param end_utc query int true "Window end (UTC nanoseconds)"
// @Success 200 {string} string "CSV payload"
// @Failure 400 {object} response.Envelope
// @Router /events/export/csv [get]
func (h *EventHandler) ExportCSV(c *gin.Context) {
	q, err := bindWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.service.ExportCSV(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events.csv"`)
	c.Data(http.StatusOK, "text/csv", data)
}

// ExportPDF godoc
// @Summary Export events as PDF
// @Description Export the projected window as a PDF file
// @Tags Events
// @Produce application/pdf
// @Param start_utc query int true "Window start (UTC nanoseconds)"
// @Param end_utc query int true "Window end (UTC nanoseconds)"
// @Success 200 {string} string "PDF payload"
// @Failure 400 {object} response.Envelope
// @Router /events/export/pdf [get]
func (h *EventHandler) ExportPDF(c *gin.Context) {
	q, err := bindWindow(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, err := h.service.ExportPDF(c.Request.Context(), q)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="events.pdf"`)
	c.Data(http.StatusOK, "application/pdf", data)
}
