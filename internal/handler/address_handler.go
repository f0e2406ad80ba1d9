package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// AddressHandler handles user address endpoints.
type AddressHandler struct {
	service *service.AddressService
}

// NewAddressHandler constructs an address handler.
func NewAddressHandler(svc *service.AddressService) *AddressHandler {
	return &AddressHandler{service: svc}
}

// Add godoc
// @Summary Attach address to caller
// @Tags Addresses
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.AddAddressRequest true "Address payload"
// @Success 201 {object} response.Envelope
// @Router /addresses [post]
func (h *AddressHandler) Add(c *gin.Context) {
	var req service.AddAddressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	address, err := h.service.Add(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, address)
}

// List godoc
// @Summary List caller's addresses
// @Tags Addresses
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /addresses [get]
func (h *AddressHandler) List(c *gin.Context) {
	addresses, err := h.service.List(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, addresses, nil)
}

// Remove godoc
// @Summary Detach address from caller
// @Tags Addresses
// @Security BearerAuth
// @Param id path string true "Address ID"
// @Success 204
// @Router /addresses/{id} [delete]
func (h *AddressHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
