package memory

import (
	"context"
	"regexp"
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/domain/job"
	"job-tracker/internal/query"
)

type jobRecord = job.Job

type JobRepository struct {
	store *Store
}

var _ job.Repository = (*JobRepository)(nil)

func NewJobRepository(store *Store) *JobRepository {
	return &JobRepository{store: store}
}

func (r *JobRepository) Create(_ context.Context, j *job.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if r.slugTaken(j.Slug, uuid.Nil) {
		return job.ErrSlugTaken
	}

	now := time.Now().UTC()
	j.ID = uuid.New()
	j.CreatedAt = now
	j.UpdatedAt = now
	if j.Status == "" {
		j.Status = job.StatusPending
	}
	r.store.jobs[j.ID] = *j
	return nil
}

func (r *JobRepository) GetByID(_ context.Context, jobID, ownerID uuid.UUID) (*job.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	j, ok := r.store.jobs[jobID]
	if !ok || j.OwnerID != ownerID {
		return nil, job.ErrJobNotFound
	}
	return &j, nil
}

func (r *JobRepository) GetBySlug(_ context.Context, slug string, ownerID uuid.UUID) (*job.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, j := range r.store.jobs {
		if j.Slug == slug && j.OwnerID == ownerID {
			found := j
			return &found, nil
		}
	}
	return nil, job.ErrJobNotFound
}

func (r *JobRepository) ListByOwner(_ context.Context, ownerID uuid.UUID, req query.Request) ([]*job.Job, error) {
	owner := ownerID
	return r.list(&owner, req)
}

func (r *JobRepository) List(_ context.Context, req query.Request) ([]*job.Job, error) {
	return r.list(nil, req)
}

func (r *JobRepository) list(ownerID *uuid.UUID, req query.Request) ([]*job.Job, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ids []uuid.UUID
	for id, j := range r.store.jobs {
		if ownerID == nil || j.OwnerID == *ownerID {
			ids = append(ids, id)
		}
	}

	jobs := r.store.jobs
	fields := map[string]getter{
		"id":         func(id uuid.UUID) interface{} { return id },
		"company":    func(id uuid.UUID) interface{} { return jobs[id].Company },
		"slug":       func(id uuid.UUID) interface{} { return jobs[id].Slug },
		"position":   func(id uuid.UUID) interface{} { return jobs[id].Position },
		"status":     func(id uuid.UUID) interface{} { return string(jobs[id].Status) },
		"created_by": func(id uuid.UUID) interface{} { return jobs[id].OwnerID },
		"created_at": func(id uuid.UUID) interface{} { return jobs[id].CreatedAt },
		"updated_at": func(id uuid.UUID) interface{} { return jobs[id].UpdatedAt },
	}

	selected, err := selectIDs(ids, job.QuerySchema, fields, req)
	if err != nil {
		return nil, err
	}

	out := make([]*job.Job, 0, len(selected))
	for _, id := range selected {
		j := jobs[id]
		out = append(out, &j)
	}
	return out, nil
}

func (r *JobRepository) Update(_ context.Context, j *job.Job) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.store.jobs[j.ID]
	if !ok || stored.OwnerID != j.OwnerID {
		return job.ErrJobNotFound
	}
	if r.slugTaken(j.Slug, j.ID) {
		return job.ErrSlugTaken
	}

	stored.Company = j.Company
	stored.Slug = j.Slug
	stored.Position = j.Position
	stored.Status = j.Status
	stored.UpdatedAt = time.Now().UTC()
	j.UpdatedAt = stored.UpdatedAt
	r.store.jobs[j.ID] = stored
	return nil
}

func (r *JobRepository) Delete(_ context.Context, jobID, ownerID uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	j, ok := r.store.jobs[jobID]
	if !ok || j.OwnerID != ownerID {
		return job.ErrJobNotFound
	}
	delete(r.store.jobs, jobID)
	return nil
}

func (r *JobRepository) DeleteByOwner(_ context.Context, ownerID uuid.UUID) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var removed int64
	for id, j := range r.store.jobs {
		if j.OwnerID == ownerID {
			delete(r.store.jobs, id)
			removed++
		}
	}
	return removed, nil
}

func (r *JobRepository) ListSlugs(_ context.Context, pattern string, excludeID *uuid.UUID) ([]string, error) {
	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, err
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var slugs []string
	for id, j := range r.store.jobs {
		if excludeID != nil && id == *excludeID {
			continue
		}
		if re.MatchString(j.Slug) {
			slugs = append(slugs, j.Slug)
		}
	}
	return slugs, nil
}

// slugTaken mirrors the unique index on jobs.slug. Callers hold the lock.
func (r *JobRepository) slugTaken(slug string, except uuid.UUID) bool {
	for id, j := range r.store.jobs {
		if id != except && j.Slug == slug {
			return true
		}
	}
	return false
}
