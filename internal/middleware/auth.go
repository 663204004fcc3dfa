package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

const (
	UserKey   = "user"
	UserIDKey = "userID"
	RoleKey   = "role"

	// TokenCookie carries the signed session token for browser clients.
	TokenCookie = "jwtToken"
)

// Authenticator resolves the user behind a session token.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*domainUser.User, error)
}

// AuthMiddleware requires a valid session. The bearer token wins over the
// cookie; a cookie whose signature does not verify is ignored.
func AuthMiddleware(auth Authenticator, cookieSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := SessionToken(c, cookieSecret)

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			var appErr *appErrors.AppError
			if errors.As(err, &appErr) && appErr.Kind == appErrors.KindAuthentication {
				utils.ErrorResponse(c, http.StatusUnauthorized, appErr.Message)
			} else {
				logger.Error("Failed to authenticate request",
					zap.String("request_id", GetRequestID(c)),
					zap.Error(err),
				)
				utils.ErrorResponse(c, http.StatusInternalServerError, "Internal server error")
			}
			c.Abort()
			return
		}

		c.Set(UserKey, user)
		c.Set(UserIDKey, user.ID)
		c.Set(RoleKey, user.Role)

		c.Next()
	}
}

// SessionToken extracts the raw token from the request, or "" if none.
func SessionToken(c *gin.Context, cookieSecret string) string {
	if header := c.GetHeader("Authorization"); header != "" {
		parts := strings.SplitN(header, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" && parts[1] != "" {
			return parts[1]
		}
	}

	signed, err := c.Cookie(TokenCookie)
	if err != nil || signed == "" {
		return ""
	}
	token, ok := utils.UnsignCookie(signed, cookieSecret)
	if !ok {
		logger.Debug("Discarding session cookie with bad signature",
			zap.String("request_id", GetRequestID(c)),
		)
		return ""
	}
	return token
}

// CurrentUser returns the user stored by AuthMiddleware.
func CurrentUser(c *gin.Context) (*domainUser.User, bool) {
	v, exists := c.Get(UserKey)
	if !exists {
		return nil, false
	}
	user, ok := v.(*domainUser.User)
	return user, ok
}

func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	v, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
