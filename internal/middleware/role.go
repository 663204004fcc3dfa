package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	"job-tracker/pkg/utils"
)

// RestrictTo lets the request through only for the given roles. It must run
// after AuthMiddleware.
func RestrictTo(roles ...domainUser.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(RoleKey)
		userRole, ok := role.(domainUser.Role)
		if !exists || !ok {
			utils.ErrorResponse(c, http.StatusForbidden, "You do not have permission to perform this action")
			c.Abort()
			return
		}

		for _, allowed := range roles {
			if userRole == allowed {
				c.Next()
				return
			}
		}

		userID, _ := CurrentUserID(c)
		logger.Warn("Permission denied",
			zap.String("request_id", GetRequestID(c)),
			zap.String("user_id", userID.String()),
			zap.String("role", string(userRole)),
			zap.String("path", c.Request.URL.Path),
		)
		utils.ErrorResponse(c, http.StatusForbidden, "You do not have permission to perform this action")
		c.Abort()
	}
}

func AdminOnly() gin.HandlerFunc {
	return RestrictTo(domainUser.RoleAdmin)
}
