package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/service"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
	"github.com/shikshalink/attendance-api/pkg/response"
)

// ReportHandler serves downloadable monthly summary exports.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// ExportMonthlySummary godoc
// @Summary Export a monthly summary
// @Description Download one class-section's monthly summary as CSV or PDF
// @Tags Reports
// @Produce text/csv
// @Produce application/pdf
// @Param schoolId path string true "School ID"
// @Param classSectionId path string true "Class-section ID"
// @Param month path string true "Month (YYYY-MM)"
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} file
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{schoolId}/class-sections/{classSectionId}/summaries/{month}/export [get]
func (h *ReportHandler) ExportMonthlySummary(c *gin.Context) {
	schoolID := c.Param("schoolId")
	classSectionID := c.Param("classSectionId")
	month := c.Param("month")

	var (
		payload  []byte
		mimeType string
		ext      string
		err      error
	)
	switch c.DefaultQuery("format", "csv") {
	case "csv":
		payload, err = h.service.MonthlySummaryCSV(c.Request.Context(), schoolID, classSectionID, month)
		mimeType, ext = "text/csv", "csv"
	case "pdf":
		payload, err = h.service.MonthlySummaryPDF(c.Request.Context(), schoolID, classSectionID, month)
		mimeType, ext = "application/pdf", "pdf"
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrInvalidArgument, "format must be csv or pdf"))
		return
	}
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := fmt.Sprintf("summary-%s-%s.%s", classSectionID, month, ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, mimeType, payload)
}
