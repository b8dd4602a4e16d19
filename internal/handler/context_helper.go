package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tejraval11/student-leave-mgmt/internal/middleware"
	"github.com/tejraval11/student-leave-mgmt/internal/models"
	"github.com/tejraval11/student-leave-mgmt/internal/workflow"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

func actorFromClaims(claims *models.JWTClaims) workflow.Actor {
	return workflow.Actor{Role: claims.Role, SubjectID: claims.SubjectID}
}
