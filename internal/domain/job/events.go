package job

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventCreated EventType = "created"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
)

type Event struct {
	Type       EventType `json:"event"`
	JobID      uuid.UUID `json:"job_id"`
	OwnerID    uuid.UUID `json:"owner_id"`
	Slug       string    `json:"slug"`
	Status     Status    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEvent(t EventType, j *Job, at time.Time) Event {
	return Event{
		Type:       t,
		JobID:      j.ID,
		OwnerID:    j.OwnerID,
		Slug:       j.Slug,
		Status:     j.Status,
		OccurredAt: at,
	}
}

//go:generate mockgen -destination=../../mocks/mock_publisher.go -package=mocks job-tracker/internal/domain/job EventPublisher

// EventPublisher fans job lifecycle events out to other systems.
type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
