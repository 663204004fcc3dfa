package job

import (
	"time"

	"github.com/google/uuid"

	domainJob "job-tracker/internal/domain/job"
	domainUser "job-tracker/internal/domain/user"
)

type CreateJobRequest struct {
	Company  string `json:"company" validate:"required,max=50"`
	Position string `json:"position" validate:"required,max=100"`
	Status   string `json:"status" validate:"omitempty,job_status"`
}

type UpdateJobRequest struct {
	Company  *string `json:"company" validate:"omitempty,max=50"`
	Position *string `json:"position" validate:"omitempty,max=100"`
	Status   *string `json:"status" validate:"omitempty,job_status"`
}

type OwnerResponse struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type JobResponse struct {
	ID        uuid.UUID      `json:"id"`
	Company   string         `json:"company"`
	Slug      string         `json:"slug"`
	Position  string         `json:"position"`
	Status    string         `json:"status"`
	CreatedBy *OwnerResponse `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

func ToJobResponse(j *domainJob.Job, owner *domainUser.User) *JobResponse {
	if j == nil {
		return nil
	}
	resp := &JobResponse{
		ID:        j.ID,
		Company:   j.Company,
		Slug:      j.Slug,
		Position:  j.Position,
		Status:    string(j.Status),
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
	if owner != nil {
		resp.CreatedBy = &OwnerResponse{ID: owner.ID, Name: owner.Name, Email: owner.Email}
	}
	return resp
}
