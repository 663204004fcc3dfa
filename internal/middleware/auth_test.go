package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	domainUser "job-tracker/internal/domain/user"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

const cookieSecret = "cookie-secret"

// stubAuthenticator accepts a single token.
type stubAuthenticator struct {
	token string
	user  *domainUser.User
	err   error
	seen  string
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*domainUser.User, error) {
	s.seen = token
	if s.err != nil {
		return nil, s.err
	}
	if token == "" {
		return nil, appErrors.NewAuthenticationError("You are not logged in! Please log in to get access", appErrors.ErrNotLoggedIn)
	}
	if token != s.token {
		return nil, appErrors.NewAuthenticationError("Invalid token. Please log in again!", appErrors.ErrInvalidToken)
	}
	return s.user, nil
}

func newAuthRouter(auth Authenticator, roles ...domainUser.Role) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := []gin.HandlerFunc{AuthMiddleware(auth, cookieSecret)}
	if len(roles) > 0 {
		handlers = append(handlers, RestrictTo(roles...))
	}
	handlers = append(handlers, func(c *gin.Context) {
		user, ok := CurrentUser(c)
		if !ok {
			c.Status(http.StatusTeapot)
			return
		}
		c.String(http.StatusOK, user.Email)
	})
	r.GET("/private", handlers...)
	return r
}

func signedCookie(token string) *http.Cookie {
	return &http.Cookie{Name: TokenCookie, Value: url.QueryEscape(utils.SignCookie(token, cookieSecret))}
}

func serve(r *gin.Engine, bearer string, cookie *http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware_TokenSources(t *testing.T) {
	auth := &stubAuthenticator{
		token: "good",
		user:  &domainUser.User{ID: uuid.New(), Email: "a@b.com", Role: domainUser.RoleUser},
	}
	r := newAuthRouter(auth)

	rec := serve(r, "good", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "a@b.com", rec.Body.String())

	rec = serve(r, "", signedCookie("good"))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "good", auth.seen)

	rec = serve(r, "other", signedCookie("good"))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "other", auth.seen)

	rec = serve(r, "", &http.Cookie{Name: TokenCookie, Value: url.QueryEscape("s:good.forged")})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "", auth.seen)
	assert.Contains(t, rec.Body.String(), "You are not logged in!")

	rec = serve(r, "", &http.Cookie{Name: TokenCookie, Value: "good"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "", auth.seen)
}

func TestAuthMiddleware_UnexpectedError(t *testing.T) {
	r := newAuthRouter(&stubAuthenticator{err: errors.New("db down")})

	rec := serve(r, "good", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRestrictTo(t *testing.T) {
	user := &domainUser.User{ID: uuid.New(), Email: "a@b.com", Role: domainUser.RoleUser}
	admin := &domainUser.User{ID: uuid.New(), Email: "root@b.com", Role: domainUser.RoleAdmin}

	rec := serve(newAuthRouter(&stubAuthenticator{token: "t", user: user}, domainUser.RoleAdmin), "t", nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "You do not have permission to perform this action")

	rec = serve(newAuthRouter(&stubAuthenticator{token: "t", user: admin}, domainUser.RoleAdmin), "t", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(newAuthRouter(&stubAuthenticator{token: "t", user: user}, domainUser.RoleAdmin, domainUser.RoleUser), "t", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRestrictTo_WithoutAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/admin", AdminOnly(), func(c *gin.Context) { c.Status(http.StatusOK) })

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}
