package job

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	domainJob "job-tracker/internal/domain/job"
	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	"job-tracker/internal/query"
	"job-tracker/internal/slug"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

// Service implements job use cases. Every operation except ListAllJobs is
// scoped to the calling owner.
type Service struct {
	jobRepo   domainJob.Repository
	userRepo  domainUser.Repository
	publisher domainJob.EventPublisher
	now       func() time.Time
}

func NewService(
	jobRepo domainJob.Repository,
	userRepo domainUser.Repository,
	publisher domainJob.EventPublisher,
) *Service {
	return &Service{
		jobRepo:   jobRepo,
		userRepo:  userRepo,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) CreateJob(ctx context.Context, ownerID uuid.UUID, req *CreateJobRequest) (*JobResponse, error) {
	req.Company = utils.SanitizeName(req.Company)
	req.Position = utils.SanitizeName(req.Position)
	req.Status = normalizeStatus(req.Status)
	if err := validate(req, req.Status); err != nil {
		return nil, err
	}

	status := domainJob.StatusPending
	if req.Status != "" {
		status = domainJob.Status(req.Status)
	}

	jobSlug, err := s.resolveSlug(ctx, req.Company, nil)
	if err != nil {
		return nil, err
	}

	job := &domainJob.Job{
		Company:  req.Company,
		Slug:     jobSlug,
		Position: req.Position,
		Status:   status,
		OwnerID:  ownerID,
	}
	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, s.mapError(job.ID, err)
	}

	logger.Info("Job created",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", ownerID.String()),
		zap.String("slug", job.Slug),
		zap.String("event", "job_created"),
	)
	s.publish(ctx, domainJob.EventCreated, job)

	return s.resolveOwner(ctx, job)
}

func (s *Service) GetJob(ctx context.Context, ownerID, jobID uuid.UUID) (*JobResponse, error) {
	job, err := s.jobRepo.GetByID(ctx, jobID, ownerID)
	if err != nil {
		return nil, s.mapError(jobID, err)
	}
	return s.resolveOwner(ctx, job)
}

func (s *Service) GetJobBySlug(ctx context.Context, ownerID uuid.UUID, jobSlug string) (*JobResponse, error) {
	job, err := s.jobRepo.GetBySlug(ctx, jobSlug, ownerID)
	if err != nil {
		if errors.Is(err, domainJob.ErrJobNotFound) {
			return nil, appErrors.NewNotFoundError(fmt.Sprintf("No job found with that slug: %s", jobSlug), err)
		}
		return nil, err
	}
	return s.resolveOwner(ctx, job)
}

func (s *Service) ListJobs(ctx context.Context, ownerID uuid.UUID, req query.Request) ([]*JobResponse, error) {
	jobs, err := s.jobRepo.ListByOwner(ctx, ownerID, req)
	if err != nil {
		return nil, err
	}
	return s.resolveOwners(ctx, jobs)
}

// ListAllJobs lists every user's jobs. Admin only.
func (s *Service) ListAllJobs(ctx context.Context, req query.Request) ([]*JobResponse, error) {
	jobs, err := s.jobRepo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.resolveOwners(ctx, jobs)
}

func (s *Service) UpdateJob(ctx context.Context, ownerID, jobID uuid.UUID, req *UpdateJobRequest) (*JobResponse, error) {
	if req.Company != nil {
		company := utils.SanitizeName(*req.Company)
		if company == "" {
			return nil, appErrors.NewValidationError("A job must have a company", nil)
		}
		req.Company = &company
	}
	if req.Position != nil {
		position := utils.SanitizeName(*req.Position)
		if position == "" {
			return nil, appErrors.NewValidationError("A job must have a position", nil)
		}
		req.Position = &position
	}
	var status string
	if req.Status != nil {
		status = normalizeStatus(*req.Status)
		req.Status = &status
	}
	if err := validate(req, status); err != nil {
		return nil, err
	}

	job, err := s.jobRepo.GetByID(ctx, jobID, ownerID)
	if err != nil {
		return nil, s.mapError(jobID, err)
	}

	if req.Company != nil && *req.Company != job.Company {
		jobSlug, err := s.resolveSlug(ctx, *req.Company, &job.ID)
		if err != nil {
			return nil, err
		}
		job.Company = *req.Company
		job.Slug = jobSlug
	}
	if req.Position != nil {
		job.Position = *req.Position
	}
	if req.Status != nil {
		job.Status = domainJob.Status(*req.Status)
	}

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, s.mapError(jobID, err)
	}

	logger.Info("Job updated",
		zap.String("job_id", job.ID.String()),
		zap.String("user_id", ownerID.String()),
		zap.String("event", "job_updated"),
	)
	s.publish(ctx, domainJob.EventUpdated, job)

	return s.resolveOwner(ctx, job)
}

func (s *Service) DeleteJob(ctx context.Context, ownerID, jobID uuid.UUID) error {
	job, err := s.jobRepo.GetByID(ctx, jobID, ownerID)
	if err != nil {
		return s.mapError(jobID, err)
	}
	if err := s.jobRepo.Delete(ctx, jobID, ownerID); err != nil {
		return s.mapError(jobID, err)
	}

	logger.Info("Job deleted",
		zap.String("job_id", jobID.String()),
		zap.String("user_id", ownerID.String()),
		zap.String("event", "job_deleted"),
	)
	s.publish(ctx, domainJob.EventDeleted, job)

	return nil
}

// resolveSlug derives the slug for company, numbering it past the slugs
// already stored. Not atomic: a concurrent insert of the same company can
// still hit the unique index, which surfaces as a conflict.
func (s *Service) resolveSlug(ctx context.Context, company string, excludeID *uuid.UUID) (string, error) {
	base := slug.Make(company)
	existing, err := s.jobRepo.ListSlugs(ctx, slug.Pattern(base), excludeID)
	if err != nil {
		return "", err
	}
	return slug.Resolve(base, existing), nil
}

func (s *Service) resolveOwner(ctx context.Context, job *domainJob.Job) (*JobResponse, error) {
	responses, err := s.resolveOwners(ctx, []*domainJob.Job{job})
	if err != nil {
		return nil, err
	}
	return responses[0], nil
}

// resolveOwners attaches the public owner view to each job with one lookup.
func (s *Service) resolveOwners(ctx context.Context, jobs []*domainJob.Job) ([]*JobResponse, error) {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, j := range jobs {
		if _, ok := seen[j.OwnerID]; !ok && j.OwnerID != uuid.Nil {
			seen[j.OwnerID] = struct{}{}
			ids = append(ids, j.OwnerID)
		}
	}

	owners := make(map[uuid.UUID]*domainUser.User, len(ids))
	if len(ids) > 0 {
		users, err := s.userRepo.GetByIDs(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve job owners: %w", err)
		}
		for _, u := range users {
			owners[u.ID] = u
		}
	}

	responses := make([]*JobResponse, 0, len(jobs))
	for _, j := range jobs {
		responses = append(responses, ToJobResponse(j, owners[j.OwnerID]))
	}
	return responses, nil
}

func (s *Service) publish(ctx context.Context, t domainJob.EventType, job *domainJob.Job) {
	if err := s.publisher.Publish(ctx, domainJob.NewEvent(t, job, s.now())); err != nil {
		logger.Warn("Failed to publish job event",
			zap.String("job_id", job.ID.String()),
			zap.String("type", string(t)),
			zap.Error(err),
		)
	}
}

func (s *Service) mapError(jobID uuid.UUID, err error) error {
	switch {
	case errors.Is(err, domainJob.ErrJobNotFound):
		return appErrors.NewNotFoundError(fmt.Sprintf("No job found with that ID: %s", jobID), err)
	case errors.Is(err, domainJob.ErrSlugTaken):
		return appErrors.NewConflictError("A job with the same slug was created concurrently. Please try again.", err)
	default:
		return err
	}
}

// validate runs tag validation on req. A failure caused by an unknown
// status also matches domainJob.ErrInvalidStatus.
func validate(req interface{}, status string) error {
	err := utils.ValidateStruct(req)
	if err == nil {
		return nil
	}
	cause := err
	if status != "" && !domainJob.Status(status).Valid() {
		cause = fmt.Errorf("%w: %w", domainJob.ErrInvalidStatus, err)
	}
	return appErrors.NewValidationError(err.Error(), cause)
}

// normalizeStatus lowercases user supplied status values.
func normalizeStatus(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
