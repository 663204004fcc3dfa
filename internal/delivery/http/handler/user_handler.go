package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-tracker/internal/config"
	"job-tracker/internal/middleware"
	"job-tracker/internal/query"
	"job-tracker/internal/usecase/user"
	"job-tracker/pkg/utils"
)

type UserHandler struct {
	service *user.Service
	config  *config.Config
}

func NewUserHandler(service *user.Service, cfg *config.Config) *UserHandler {
	return &UserHandler{service: service, config: cfg}
}

// RegisterRoutes mounts the endpoints that need no session.
func (h *UserHandler) RegisterRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.POST("/register", h.Register)
		users.POST("/login", h.Login)
		users.POST("/forgot-password", h.ForgotPassword)
		users.POST("/reset-password/:token", h.ResetPassword)
		users.PATCH("/reset-password/:token", h.ResetPassword)
	}
}

// RegisterProfileRoutes mounts the endpoints acting on the caller.
func (h *UserHandler) RegisterProfileRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.PATCH("/update-user-password", h.UpdatePassword)
		users.GET("/me", h.GetMe)
		users.PATCH("/me", h.UpdateMe)
		users.PATCH("/update-user", h.UpdateMe)
		users.DELETE("/me", h.DeleteMe)
		users.DELETE("/delete-user", h.DeleteMe)
	}
}

func (h *UserHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	users := router.Group("/users")
	{
		users.GET("", h.ListUsers)
		users.GET("/:id", h.GetUser)
		users.PATCH("/:id", h.UpdateUser)
		users.DELETE("/:id", h.DeleteUser)
	}
}

func (h *UserHandler) Register(c *gin.Context) {
	var req user.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.Register(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.sendToken(c, http.StatusCreated, "User registered successfully", authResponse)
}

func (h *UserHandler) Login(c *gin.Context) {
	var req user.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.Login(c.Request.Context(), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, "Login successful", authResponse)
}

func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req user.ForgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), &req, resetURLBase(c)); err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Token sent to email!", nil)
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req user.ResetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, "Password reset successfully", authResponse)
}

func (h *UserHandler) UpdatePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req user.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.service.UpdatePassword(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.sendToken(c, http.StatusOK, "Password updated successfully", authResponse)
}

// GetMe answers from the user AuthMiddleware already loaded.
func (h *UserHandler) GetMe(c *gin.Context) {
	current, ok := middleware.CurrentUser(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access")
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile retrieved successfully", user.ToUserResponse(current))
}

func (h *UserHandler) UpdateMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req user.UpdateMeRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateMe(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Profile updated successfully", profile)
}

func (h *UserHandler) DeleteMe(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	h.clearToken(c)
	c.Status(http.StatusNoContent)
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	req := query.FromValues(c.Request.URL.Query())

	users, err := h.service.ListUsers(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithList(c, "Users retrieved successfully", req.Fields, len(users), users)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	userID, ok := pathID(c, "id", "user ID")
	if !ok {
		return
	}

	profile, err := h.service.GetUser(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User retrieved successfully", profile)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	userID, ok := pathID(c, "id", "user ID")
	if !ok {
		return
	}

	var req user.UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.service.UpdateUser(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "User updated successfully", profile)
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	userID, ok := pathID(c, "id", "user ID")
	if !ok {
		return
	}

	if err := h.service.DeleteUser(c.Request.Context(), userID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// sendToken sets the signed session cookie and returns the token in the body.
func (h *UserHandler) sendToken(c *gin.Context, status int, message string, auth *user.AuthResponse) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(
		middleware.TokenCookie,
		utils.SignCookie(auth.Token, h.config.JWT.CookieSecret),
		int(h.config.JWT.CookieExpiry.Seconds()),
		"/",
		"",
		isSecure(c),
		true,
	)
	utils.SuccessResponse(c, status, message, auth)
}

func (h *UserHandler) clearToken(c *gin.Context) {
	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.TokenCookie, "", -1, "/", "", isSecure(c), true)
}

func isSecure(c *gin.Context) bool {
	return c.Request.TLS != nil || c.GetHeader("X-Forwarded-Proto") == "https"
}

func resetURLBase(c *gin.Context) string {
	scheme := "http"
	if isSecure(c) {
		scheme = "https"
	}
	return fmt.Sprintf("%s://%s/api/v1/users/reset-password/", scheme, c.Request.Host)
}
