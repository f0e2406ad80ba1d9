package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/service"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
	"github.com/seanma333/project-metronome-app-sub000/pkg/storage"
)

// IdentityHandler handles the current-user endpoints.
type IdentityHandler struct {
	service       *service.IdentityService
	avatars       *storage.AvatarStore
	avatarBaseURL string
}

// NewIdentityHandler constructs an identity handler.
func NewIdentityHandler(svc *service.IdentityService, avatars *storage.AvatarStore, avatarBaseURL string) *IdentityHandler {
	return &IdentityHandler{service: svc, avatars: avatars, avatarBaseURL: avatarBaseURL}
}

// Me godoc
// @Summary Current user
// @Tags Identity
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /me [get]
func (h *IdentityHandler) Me(c *gin.Context) {
	response.JSON(c, http.StatusOK, currentUser(c), nil)
}

// Onboard godoc
// @Summary Complete onboarding
// @Tags Identity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.OnboardingRequest true "Role and timezone"
// @Success 200 {object} response.Envelope
// @Router /me/onboarding [post]
func (h *IdentityHandler) Onboard(c *gin.Context) {
	var req service.OnboardingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.Onboard(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// Update godoc
// @Summary Update profile
// @Tags Identity
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} response.Envelope
// @Router /me [patch]
func (h *IdentityHandler) Update(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	user, err := h.service.UpdateProfile(c.Request.Context(), currentUser(c).ID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}

// UploadAvatar godoc
// @Summary Upload avatar
// @Tags Identity
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Avatar image"
// @Success 200 {object} response.Envelope
// @Router /me/avatar [put]
func (h *IdentityHandler) UploadAvatar(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "missing avatar file"))
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	userID := currentUser(c).ID
	filename, err := h.avatars.Save(userID, file, fileHeader.Size)
	if err != nil {
		response.Error(c, err)
		return
	}

	user, err := h.service.SetAvatar(c.Request.Context(), userID, h.avatarBaseURL+"/"+filename)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, user, nil)
}
