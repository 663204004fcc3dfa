package routes

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"job-tracker/internal/config"
	"job-tracker/internal/delivery/http/handler"
	"job-tracker/internal/logger"
	"job-tracker/internal/middleware"
	"job-tracker/internal/usecase/job"
	"job-tracker/internal/usecase/user"
	"job-tracker/pkg/utils"
)

// HealthChecker reports whether the backing store is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// SetupRoutes builds the engine. Background work started by middleware
// stops when ctx is done.
func SetupRoutes(ctx context.Context, cfg *config.Config, db HealthChecker, userService *user.Service, jobService *job.Service) *gin.Engine {
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Add middleware in order: recovery, request ID, logging, security headers, CORS, request size limit, general rate limit
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggingMiddleware())
	router.Use(middleware.SecurityHeadersMiddleware(cfg.Server.Environment == "production"))
	router.Use(middleware.CORSMiddleware(&cfg.CORS))
	router.Use(middleware.RequestSizeLimitMiddleware(cfg.Server.MaxRequestSize))
	router.Use(middleware.RateLimitMiddleware(ctx, &cfg.RateLimit))

	router.GET("/health", func(c *gin.Context) {
		if err := db.Health(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unhealthy",
				"message": "Database connection failed",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"message": "Service is running",
		})
	})

	userHandler := handler.NewUserHandler(userService, cfg)
	jobHandler := handler.NewJobHandler(jobService)

	v1 := router.Group("/api/v1")
	{
		userHandler.RegisterRoutes(v1)

		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware(userService, cfg.JWT.CookieSecret))
		{
			userHandler.RegisterProfileRoutes(protected)
			jobHandler.RegisterRoutes(protected)

			admin := protected.Group("")
			admin.Use(middleware.AdminOnly())
			{
				userHandler.RegisterAdminRoutes(admin)
				jobHandler.RegisterAdminRoutes(admin)
			}
		}
	}

	router.NoRoute(func(c *gin.Context) {
		utils.ErrorResponse(c, http.StatusNotFound, fmt.Sprintf("Can't find %s on this server", c.Request.URL.Path))
	})

	logger.Info("All routes initialized")
	return router
}
