package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// TimeslotHandler handles availability grid endpoints.
type TimeslotHandler struct {
	service *service.TimeslotService
}

// NewTimeslotHandler constructs a timeslot handler.
func NewTimeslotHandler(svc *service.TimeslotService) *TimeslotHandler {
	return &TimeslotHandler{service: svc}
}

// Create godoc
// @Summary Add slot to own grid
// @Tags Timeslots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateTimeslotRequest true "Slot placement"
// @Success 201 {object} response.Envelope
// @Router /timeslots [post]
func (h *TimeslotHandler) Create(c *gin.Context) {
	var req service.CreateTimeslotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.Create(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, slot)
}

// List godoc
// @Summary List own grid
// @Tags Timeslots
// @Produce json
// @Security BearerAuth
// @Param tz query string false "Render into IANA timezone"
// @Success 200 {object} response.Envelope
// @Router /timeslots [get]
func (h *TimeslotHandler) List(c *gin.Context) {
	teacherID := currentUser(c).ID
	if tz := c.Query("tz"); tz != "" {
		views, err := h.service.ListView(c.Request.Context(), teacherID, tz)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, views, nil)
		return
	}
	slots, err := h.service.ListOwn(c.Request.Context(), teacherID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Move godoc
// @Summary Move or resize an open slot
// @Tags Timeslots
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Timeslot ID"
// @Param payload body service.MoveTimeslotRequest true "New placement"
// @Success 200 {object} response.Envelope
// @Router /timeslots/{id} [patch]
func (h *TimeslotHandler) Move(c *gin.Context) {
	var req service.MoveTimeslotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	slot, err := h.service.Move(c.Request.Context(), currentUser(c).ID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slot, nil)
}

// Delete godoc
// @Summary Delete an open slot
// @Tags Timeslots
// @Security BearerAuth
// @Param id path string true "Timeslot ID"
// @Success 204
// @Router /timeslots/{id} [delete]
func (h *TimeslotHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
