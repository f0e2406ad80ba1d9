package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// ScheduleExportHandler serves weekly schedule downloads.
type ScheduleExportHandler struct {
	service *service.ExportService
}

// NewScheduleExportHandler constructs a schedule export handler.
func NewScheduleExportHandler(svc *service.ExportService) *ScheduleExportHandler {
	return &ScheduleExportHandler{service: svc}
}

// Export godoc
// @Summary Download own weekly schedule
// @Tags Schedule
// @Produce octet-stream
// @Security BearerAuth
// @Param format query string false "csv or pdf" default(csv)
// @Success 200 {file} byte
// @Router /schedule/export [get]
func (h *ScheduleExportHandler) Export(c *gin.Context) {
	teacherID := currentUser(c).ID
	stamp := time.Now().Format("2006-01-02")

	switch c.DefaultQuery("format", "csv") {
	case "csv":
		data, err := h.service.WeeklyScheduleCSV(c.Request.Context(), teacherID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s.csv", stamp))
		c.Data(http.StatusOK, "text/csv", data)
	case "pdf":
		data, err := h.service.WeeklySchedulePDF(c.Request.Context(), teacherID)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=schedule-%s.pdf", stamp))
		c.Data(http.StatusOK, "application/pdf", data)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
	}
}
