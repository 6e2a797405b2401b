package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ohsched/office-hours-api/internal/models"
	"github.com/ohsched/office-hours-api/internal/service"
	"github.com/ohsched/office-hours-api/pkg/response"
)

// NotificationHandler exposes the outbox for admin inspection.
type NotificationHandler struct {
	service *service.OutboxService
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(svc *service.OutboxService) *NotificationHandler {
	return &NotificationHandler{service: svc}
}

// List godoc
// @Summary List notification jobs
// @Description List outbox jobs with optional status filtering
// @Tags Notifications
// @Produce json
// @Param status query string false "Status filter (PENDING, SENT, FAILED)"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /notifications [get]
func (h *NotificationHandler) List(c *gin.Context) {
	var status *models.NotificationStatus
	if raw := c.Query("status"); raw != "" {
		s := models.NotificationStatus(raw)
		status = &s
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	jobs, pagination, err := h.service.ListJobs(c.Request.Context(), status, page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, jobs, pagination)
}
