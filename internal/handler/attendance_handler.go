package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/service"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
	"github.com/shikshalink/attendance-api/pkg/response"
)

// AttendanceHandler wires HTTP endpoints to the attendance service.
type AttendanceHandler struct {
	service *service.AttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(svc *service.AttendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// GetDay godoc
// @Summary Get one day's attendance
// @Description Fetch the attendance record for a class-section and date
// @Tags Attendance
// @Produce json
// @Param schoolId path string true "School ID"
// @Param classSectionId path string true "Class-section ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{schoolId}/class-sections/{classSectionId}/attendance/{date} [get]
func (h *AttendanceHandler) GetDay(c *gin.Context) {
	rec, err := h.service.GetDay(c.Request.Context(), c.Param("schoolId"), c.Param("classSectionId"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec)
}

// MarkDay godoc
// @Summary Mark attendance for a day
// @Description Replace the student marks for a class-section and date; rejected once the day is locked
// @Tags Attendance
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param classSectionId path string true "Class-section ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body service.MarkDayRequest true "Attendance payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{schoolId}/class-sections/{classSectionId}/attendance/{date} [put]
func (h *AttendanceHandler) MarkDay(c *gin.Context) {
	var req service.MarkDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}
	req.Date = c.Param("date")

	rec, err := h.service.MarkDay(c.Request.Context(), c.Param("schoolId"), c.Param("classSectionId"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, rec)
}

// Unlock godoc
// @Summary Unlock a locked day
// @Description Reopen a locked attendance record for corrections; admin only
// @Tags Attendance
// @Produce json
// @Param schoolId path string true "School ID"
// @Param classSectionId path string true "Class-section ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{schoolId}/class-sections/{classSectionId}/attendance/{date}/unlock [post]
func (h *AttendanceHandler) Unlock(c *gin.Context) {
	claims := claimsFromContext(c)
	err := h.service.Unlock(c.Request.Context(), claims, c.Param("schoolId"), c.Param("classSectionId"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"unlocked": true})
}
