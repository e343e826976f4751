package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/service"
	"github.com/shikshalink/attendance-api/pkg/response"
)

// JobsHandler exposes manual triggers for the scheduled jobs so operators
// can re-run a missed window without waiting for the next tick.
type JobsHandler struct {
	locks     *service.LockService
	summaries *service.SummaryService
	alerts    *service.AlertService
}

// NewJobsHandler creates a new handler.
func NewJobsHandler(locks *service.LockService, summaries *service.SummaryService, alerts *service.AlertService) *JobsHandler {
	return &JobsHandler{locks: locks, summaries: summaries, alerts: alerts}
}

// DailyLock godoc
// @Summary Trigger the daily lock job
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /jobs/daily-lock [post]
func (h *JobsHandler) DailyLock(c *gin.Context) {
	result, err := h.locks.RunDailyLock(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}

// MonthlySummary godoc
// @Summary Trigger the monthly summary job
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /jobs/monthly-summary [post]
func (h *JobsHandler) MonthlySummary(c *gin.Context) {
	if err := h.summaries.RunMonthlySummary(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"completed": true})
}

// LowAttendance godoc
// @Summary Trigger the low attendance check
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /jobs/low-attendance [post]
func (h *JobsHandler) LowAttendance(c *gin.Context) {
	if err := h.alerts.RunLowAttendanceCheck(c.Request.Context()); err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"completed": true})
}
