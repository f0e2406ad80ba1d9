package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// BookingHandler handles booking request endpoints.
type BookingHandler struct {
	service *service.BookingService
}

// NewBookingHandler constructs a booking handler.
func NewBookingHandler(svc *service.BookingService) *BookingHandler {
	return &BookingHandler{service: svc}
}

// Create godoc
// @Summary Request an open slot
// @Tags Bookings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.CreateBookingRequest true "Booking payload"
// @Success 201 {object} response.Envelope
// @Router /booking-requests [post]
func (h *BookingHandler) Create(c *gin.Context) {
	var req service.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	request, err := h.service.Create(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, request)
}

// List godoc
// @Summary List booking requests for the caller
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /booking-requests [get]
func (h *BookingHandler) List(c *gin.Context) {
	user := currentUser(c)
	var (
		requests []models.BookingRequestDetail
		err      error
	)
	if user.HasRole(models.RoleTeacher) {
		requests, err = h.service.ListForTeacher(c.Request.Context(), user.ID)
	} else {
		requests, err = h.service.ListForOwner(c.Request.Context(), user.ID)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, requests, nil)
}

// Accept godoc
// @Summary Accept a pending request
// @Tags Bookings
// @Produce json
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /booking-requests/{id}/accept [post]
func (h *BookingHandler) Accept(c *gin.Context) {
	lesson, err := h.service.Accept(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lesson, nil)
}

// Deny godoc
// @Summary Deny a pending request
// @Tags Bookings
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 204
// @Router /booking-requests/{id}/deny [post]
func (h *BookingHandler) Deny(c *gin.Context) {
	if err := h.service.Deny(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Cancel godoc
// @Summary Cancel own pending request
// @Tags Bookings
// @Security BearerAuth
// @Param id path string true "Request ID"
// @Success 204
// @Router /booking-requests/{id}/cancel [post]
func (h *BookingHandler) Cancel(c *gin.Context) {
	if err := h.service.Cancel(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
