package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/shikshalink/attendance-api/internal/service"
	appErrors "github.com/shikshalink/attendance-api/pkg/errors"
	"github.com/shikshalink/attendance-api/pkg/response"
)

// SyncHandler wires the bulk roster sync endpoint.
type SyncHandler struct {
	service *service.SyncService
}

// NewSyncHandler creates a new handler.
func NewSyncHandler(svc *service.SyncService) *SyncHandler {
	return &SyncHandler{service: svc}
}

// SyncSchoolData godoc
// @Summary Bulk sync roster data
// @Description Upsert teachers, parents, and students for one school from an uploaded roster
// @Tags Sync
// @Accept json
// @Produce json
// @Param schoolId path string true "School ID"
// @Param payload body service.SyncRequest true "Roster payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /schools/{schoolId}/sync [post]
func (h *SyncHandler) SyncSchoolData(c *gin.Context) {
	var req service.SyncRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid sync payload"))
		return
	}

	result, err := h.service.Run(c.Request.Context(), c.Param("schoolId"), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result)
}
