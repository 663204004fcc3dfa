package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"job-tracker/internal/logger"
	"job-tracker/internal/middleware"
	"job-tracker/internal/query"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

func statusFor(kind appErrors.Kind) int {
	switch kind {
	case appErrors.KindValidation:
		return http.StatusBadRequest
	case appErrors.KindAuthentication:
		return http.StatusUnauthorized
	case appErrors.KindAuthorization:
		return http.StatusForbidden
	case appErrors.KindNotFound:
		return http.StatusNotFound
	case appErrors.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondWithError writes the error envelope for err. Unexpected errors are
// logged with the request id and hidden behind a generic message.
func respondWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}

	var appErr *appErrors.AppError
	if errors.As(err, &appErr) && appErr.Kind != appErrors.KindInternal {
		utils.ErrorResponse(c, statusFor(appErr.Kind), appErr.Message)
		return
	}

	logger.Error("Internal server error",
		zap.String("request_id", middleware.GetRequestID(c)),
		zap.String("path", c.Request.URL.Path),
		zap.String("method", c.Request.Method),
		zap.Error(err),
	)

	message := "Something went very wrong!"
	if appErr != nil {
		message = appErr.Message
	}
	utils.ErrorResponse(c, http.StatusInternalServerError, message)
}

func bindJSON(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func currentUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := middleware.CurrentUserID(c)
	if !ok {
		utils.ErrorResponse(c, http.StatusUnauthorized, "You are not logged in! Please log in to get access")
		return uuid.Nil, false
	}
	return userID, true
}

func pathID(c *gin.Context, name, label string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorResponse(c, http.StatusBadRequest, "Invalid "+label+": "+c.Param(name))
		return uuid.Nil, false
	}
	return id, true
}

// listResponse is the data payload of every list endpoint.
type listResponse struct {
	RequestedAt time.Time   `json:"requested_at"`
	NbHits      int         `json:"nb_hits"`
	Items       interface{} `json:"items"`
}

func respondWithList(c *gin.Context, message string, fields []string, count int, items interface{}) {
	projected, err := query.Project(items, fields)
	if err != nil {
		respondWithError(c, err)
		return
	}
	utils.SuccessResponse(c, http.StatusOK, message, listResponse{
		RequestedAt: time.Now().UTC(),
		NbHits:      count,
		Items:       projected,
	})
}
