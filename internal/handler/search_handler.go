package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// SearchHandler handles teacher discovery.
type SearchHandler struct {
	service *service.SearchService
}

// NewSearchHandler constructs a search handler.
func NewSearchHandler(svc *service.SearchService) *SearchHandler {
	return &SearchHandler{service: svc}
}

// Search godoc
// @Summary Search teachers
// @Tags Search
// @Produce json
// @Security BearerAuth
// @Param instrument_id query string true "Instrument ID"
// @Param format query string false "IN_PERSON or ONLINE"
// @Param student_id query string false "Filter by student age fit"
// @Param max_hour_diff query int false "Online mode: max timezone distance in hours"
// @Param location query string false "In-person mode: address or place"
// @Param radius_km query number false "In-person mode: search radius"
// @Success 200 {object} response.Envelope
// @Router /search/teachers [get]
func (h *SearchHandler) Search(c *gin.Context) {
	req := service.SearchRequest{InstrumentID: c.Query("instrument_id")}
	if v := c.Query("format"); v != "" {
		format := models.LessonFormat(v)
		req.Format = &format
	}
	if v := c.Query("student_id"); v != "" {
		req.StudentID = &v
	}
	if v := c.Query("max_hour_diff"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MaxHourDiff = &n
		}
	}
	if v := c.Query("location"); v != "" {
		req.Location = &v
	}
	if v := c.Query("radius_km"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			req.RadiusKM = &f
		}
	}

	results, err := h.service.Search(c.Request.Context(), currentUser(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}
