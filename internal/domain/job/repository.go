package job

import (
	"context"

	"github.com/google/uuid"

	"job-tracker/internal/query"
)

// Repository defines the interface for job repository operations. Methods
// taking an ownerID only touch that owner's jobs and report ErrJobNotFound
// for anything else.
type Repository interface {
	Create(ctx context.Context, job *Job) error
	GetByID(ctx context.Context, jobID, ownerID uuid.UUID) (*Job, error)
	GetBySlug(ctx context.Context, slug string, ownerID uuid.UUID) (*Job, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID, req query.Request) ([]*Job, error)
	List(ctx context.Context, req query.Request) ([]*Job, error)
	Update(ctx context.Context, job *Job) error
	Delete(ctx context.Context, jobID, ownerID uuid.UUID) error
	DeleteByOwner(ctx context.Context, ownerID uuid.UUID) (int64, error)
	// ListSlugs returns every stored slug matching pattern
	// case-insensitively, across all owners, except the one of excludeID.
	ListSlugs(ctx context.Context, pattern string, excludeID *uuid.UUID) ([]string, error)
}
