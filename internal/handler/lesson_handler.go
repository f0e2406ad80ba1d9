package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// LessonHandler handles lesson and note endpoints.
type LessonHandler struct {
	lessons  *service.LessonService
	calendar *service.CalendarService
}

// NewLessonHandler constructs a lesson handler.
func NewLessonHandler(lessons *service.LessonService, calendar *service.CalendarService) *LessonHandler {
	return &LessonHandler{lessons: lessons, calendar: calendar}
}

// List godoc
// @Summary List the caller's lessons
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /lessons [get]
func (h *LessonHandler) List(c *gin.Context) {
	lessons, err := h.lessons.List(c.Request.Context(), currentUser(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lessons, nil)
}

// Get godoc
// @Summary Get lesson detail
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id} [get]
func (h *LessonHandler) Get(c *gin.Context) {
	lesson, err := h.lessons.Get(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Delete godoc
// @Summary Delete a lesson and free its slot
// @Tags Lessons
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 204
// @Router /lessons/{id} [delete]
func (h *LessonHandler) Delete(c *gin.Context) {
	if err := h.lessons.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddNote godoc
// @Summary Attach note to a lesson
// @Tags Lessons
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Param payload body service.CreateNoteRequest true "Note body"
// @Success 201 {object} response.Envelope
// @Router /lessons/{id}/notes [post]
func (h *LessonHandler) AddNote(c *gin.Context) {
	var req service.CreateNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	note, err := h.lessons.AddNote(c.Request.Context(), currentUser(c).ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, note)
}

// ListNotes godoc
// @Summary List lesson notes, newest first
// @Tags Lessons
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/notes [get]
func (h *LessonHandler) ListNotes(c *gin.Context) {
	notes, err := h.lessons.ListNotes(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, notes, nil)
}

// GenerateCalendarEvent godoc
// @Summary Generate the lesson's calendar event
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 201 {object} response.Envelope
// @Router /lessons/{id}/calendar-event [post]
func (h *LessonHandler) GenerateCalendarEvent(c *gin.Context) {
	event, err := h.calendar.Generate(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, event)
}

// GetCalendarEvent godoc
// @Summary Get the lesson's calendar event with next occurrence
// @Tags Calendar
// @Produce json
// @Security BearerAuth
// @Param id path string true "Lesson ID"
// @Success 200 {object} response.Envelope
// @Router /lessons/{id}/calendar-event [get]
func (h *LessonHandler) GetCalendarEvent(c *gin.Context) {
	view, err := h.calendar.GetForLesson(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
