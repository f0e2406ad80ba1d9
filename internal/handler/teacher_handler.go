package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// TeacherHandler handles teacher profile endpoints.
type TeacherHandler struct {
	service *service.TeacherService
}

// NewTeacherHandler constructs a teacher handler.
func NewTeacherHandler(svc *service.TeacherService) *TeacherHandler {
	return &TeacherHandler{service: svc}
}

// GetOwn godoc
// @Summary Get own teacher profile
// @Tags Teachers
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /teachers/me [get]
func (h *TeacherHandler) GetOwn(c *gin.Context) {
	profile, err := h.service.GetOwn(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// Upsert godoc
// @Summary Create or replace own teacher profile
// @Tags Teachers
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpsertTeacherProfileRequest true "Profile payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/me [put]
func (h *TeacherHandler) Upsert(c *gin.Context) {
	var req service.UpsertTeacherProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	profile, err := h.service.Upsert(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// PublicProfile godoc
// @Summary Public teacher page by slug
// @Tags Teachers
// @Produce json
// @Param slug path string true "Teacher slug"
// @Param tz query string false "Viewer IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /teachers/{slug} [get]
func (h *TeacherHandler) PublicProfile(c *gin.Context) {
	viewerTZ := c.Query("tz")
	if viewerTZ == "" {
		if user := currentUser(c); user != nil {
			viewerTZ = user.Timezone
		}
	}
	profile, err := h.service.PublicProfile(c.Request.Context(), c.Param("slug"), viewerTZ)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, profile, nil)
}

// ListInstruments godoc
// @Summary List instrument catalogue
// @Tags Catalogue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /instruments [get]
func (h *TeacherHandler) ListInstruments(c *gin.Context) {
	instruments, err := h.service.ListInstruments(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, instruments, nil)
}

// ListLanguages godoc
// @Summary List language catalogue
// @Tags Catalogue
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /languages [get]
func (h *TeacherHandler) ListLanguages(c *gin.Context) {
	languages, err := h.service.ListLanguages(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, languages, nil)
}
