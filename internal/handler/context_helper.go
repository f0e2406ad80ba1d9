package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/middleware"
	"github.com/seanma333/project-metronome-app-sub000/internal/models"
)

func currentUser(c *gin.Context) *models.User {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	user, ok := value.(*models.User)
	if !ok {
		return nil
	}
	return user
}
