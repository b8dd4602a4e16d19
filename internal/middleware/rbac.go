package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/tejraval11/student-leave-mgmt/internal/models"
	appErrors "github.com/tejraval11/student-leave-mgmt/pkg/errors"
	"github.com/tejraval11/student-leave-mgmt/pkg/response"
)

// RequireRoles blocks requests whose token role is not in the allowed
// set. Finer-grained ownership checks live in the workflow rules; this
// only gates whole routes by role.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
