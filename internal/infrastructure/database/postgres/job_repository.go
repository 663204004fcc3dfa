package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/infrastructure/database/postgres/models"
	"job-tracker/internal/query"
)

// JobRepository implements job.Repository on Postgres
type JobRepository struct {
	db *DB
}

func NewJobRepository(db *DB) job.Repository {
	return &JobRepository{db: db}
}

func (r *JobRepository) jobs(ctx context.Context) *gorm.DB {
	return r.db.conn(ctx).Model(&models.JobModel{})
}

// ownedBy scopes a query to a single owner's jobs.
func ownedBy(db *gorm.DB, ownerID uuid.UUID) *gorm.DB {
	return db.Where("owner_id = ?", ownerID)
}

func (r *JobRepository) Create(ctx context.Context, j *job.Job) error {
	now := time.Now().UTC()
	j.ID = uuid.New()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = job.StatusPending
	}

	dbModel := toJobModel(j)
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		if isUniqueViolation(err, "slug") {
			return job.ErrSlugTaken
		}
		return fmt.Errorf("failed to create job: %w", err)
	}

	return nil
}

func (r *JobRepository) GetByID(ctx context.Context, jobID, ownerID uuid.UUID) (*job.Job, error) {
	return r.first(ownedBy(r.jobs(ctx), ownerID).Where("id = ?", jobID))
}

func (r *JobRepository) GetBySlug(ctx context.Context, slug string, ownerID uuid.UUID) (*job.Job, error) {
	return r.first(ownedBy(r.jobs(ctx), ownerID).Where("slug = ?", slug))
}

func (r *JobRepository) first(db *gorm.DB) (*job.Job, error) {
	var dbModel models.JobModel
	err := db.First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, job.ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}

	return toJobEntity(&dbModel), nil
}

func (r *JobRepository) ListByOwner(ctx context.Context, ownerID uuid.UUID, req query.Request) ([]*job.Job, error) {
	return r.list(ownedBy(r.jobs(ctx), ownerID), req)
}

func (r *JobRepository) List(ctx context.Context, req query.Request) ([]*job.Job, error) {
	return r.list(r.jobs(ctx), req)
}

func (r *JobRepository) list(base *gorm.DB, req query.Request) ([]*job.Job, error) {
	db, err := applyFeatures(base, job.QuerySchema, req)
	if err != nil {
		return nil, err
	}

	var dbModels []models.JobModel
	if err := db.Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}

	jobs := make([]*job.Job, len(dbModels))
	for i := range dbModels {
		jobs[i] = toJobEntity(&dbModels[i])
	}
	return jobs, nil
}

func (r *JobRepository) Update(ctx context.Context, j *job.Job) error {
	j.UpdatedAt = time.Now().UTC()

	result := ownedBy(r.jobs(ctx), j.OwnerID).
		Where("id = ?", j.ID).
		Updates(map[string]interface{}{
			"company":    j.Company,
			"slug":       j.Slug,
			"position":   j.Position,
			"status":     string(j.Status),
			"updated_at": j.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error, "slug") {
			return job.ErrSlugTaken
		}
		return fmt.Errorf("failed to update job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return job.ErrJobNotFound
	}

	return nil
}

func (r *JobRepository) Delete(ctx context.Context, jobID, ownerID uuid.UUID) error {
	result := ownedBy(r.db.conn(ctx), ownerID).
		Delete(&models.JobModel{}, "id = ?", jobID)

	if result.Error != nil {
		return fmt.Errorf("failed to delete job: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return job.ErrJobNotFound
	}

	return nil
}

func (r *JobRepository) DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error) {
	result := ownedBy(r.db.conn(ctx), ownerID).
		Delete(&models.JobModel{})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to delete jobs: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func (r *JobRepository) ListSlugs(ctx context.Context, pattern string, excludeID *uuid.UUID) ([]string, error) {
	db := r.jobs(ctx).Where("slug ~* ?", pattern)
	if excludeID != nil {
		db = db.Where("id <> ?", *excludeID)
	}

	var slugs []string
	if err := db.Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}

	return slugs, nil
}

func toJobModel(j *job.Job) *models.JobModel {
	return &models.JobModel{
		ID:        j.ID,
		Company:   j.Company,
		Slug:      j.Slug,
		Position:  j.Position,
		Status:    string(j.Status),
		OwnerID:   j.OwnerID,
		CreatedAt: j.CreatedAt,
		UpdatedAt: j.UpdatedAt,
	}
}

func toJobEntity(m *models.JobModel) *job.Job {
	return &job.Job{
		ID:        m.ID,
		Company:   m.Company,
		Slug:      m.Slug,
		Position:  m.Position,
		Status:    job.Status(m.Status),
		OwnerID:   m.OwnerID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
