package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/seanma333/project-metronome-app-sub000/internal/models"
	appErrors "github.com/seanma333/project-metronome-app-sub000/pkg/errors"
	"github.com/seanma333/project-metronome-app-sub000/pkg/response"
)

// RequireRoles limits a route to users holding one of the given roles. A
// user still in onboarding has no role and is rejected.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		user, ok := value.(*models.User)
		if !ok || user.Role == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "onboarding not completed"))
			c.Abort()
			return
		}
		if _, ok := allowed[*user.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireOnboarded limits a route to any user that has completed onboarding.
func RequireOnboarded() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		user, ok := value.(*models.User)
		if !ok || user.Role == nil {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "onboarding not completed"))
			c.Abort()
			return
		}
		c.Next()
	}
}
