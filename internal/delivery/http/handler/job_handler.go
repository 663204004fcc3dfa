package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"job-tracker/internal/query"
	"job-tracker/internal/usecase/job"
	"job-tracker/pkg/utils"
)

type JobHandler struct {
	service *job.Service
}

func NewJobHandler(service *job.Service) *JobHandler {
	return &JobHandler{service: service}
}

// RegisterRoutes mounts the owner-scoped job endpoints. Requires a session.
func (h *JobHandler) RegisterRoutes(router *gin.RouterGroup) {
	jobs := router.Group("/jobs")
	{
		jobs.GET("", h.ListJobs)
		jobs.POST("", h.CreateJob)
		jobs.GET("/details/:slug", h.GetJobBySlug)
		jobs.GET("/:id", h.GetJob)
		jobs.PATCH("/:id", h.UpdateJob)
		jobs.DELETE("/:id", h.DeleteJob)
	}
}

func (h *JobHandler) RegisterAdminRoutes(router *gin.RouterGroup) {
	router.GET("/jobs/all", h.ListAllJobs)
}

func (h *JobHandler) CreateJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req job.CreateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.service.CreateJob(c.Request.Context(), userID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusCreated, "Job created successfully", created)
}

func (h *JobHandler) ListJobs(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	req := query.FromValues(c.Request.URL.Query())

	jobs, err := h.service.ListJobs(c.Request.Context(), userID, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithList(c, "Jobs retrieved successfully", req.Fields, len(jobs), jobs)
}

func (h *JobHandler) ListAllJobs(c *gin.Context) {
	req := query.FromValues(c.Request.URL.Query())

	jobs, err := h.service.ListAllJobs(c.Request.Context(), req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	respondWithList(c, "Jobs retrieved successfully", req.Fields, len(jobs), jobs)
}

func (h *JobHandler) GetJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id", "job ID")
	if !ok {
		return
	}

	found, err := h.service.GetJob(c.Request.Context(), userID, jobID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", found)
}

func (h *JobHandler) GetJobBySlug(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	found, err := h.service.GetJobBySlug(c.Request.Context(), userID, c.Param("slug"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job retrieved successfully", found)
}

func (h *JobHandler) UpdateJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id", "job ID")
	if !ok {
		return
	}

	var req job.UpdateJobRequest
	if !bindJSON(c, &req) {
		return
	}

	updated, err := h.service.UpdateJob(c.Request.Context(), userID, jobID, &req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	utils.SuccessResponse(c, http.StatusOK, "Job updated successfully", updated)
}

func (h *JobHandler) DeleteJob(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	jobID, ok := pathID(c, "id", "job ID")
	if !ok {
		return
	}

	if err := h.service.DeleteJob(c.Request.Context(), userID, jobID); err != nil {
		respondWithError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}
