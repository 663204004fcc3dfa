package job

import (
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/query"
)

// Status represents where an application stands
type Status string

const (
	StatusInterview Status = "interview"
	StatusDecline   Status = "decline"
	StatusPending   Status = "pending"
)

func (s Status) Valid() bool {
	switch s {
	case StatusInterview, StatusDecline, StatusPending:
		return true
	}
	return false
}

const (
	MaxCompanyLength  = 50
	MaxPositionLength = 100
)

// Job represents a job application entity in the domain
type Job struct {
	ID        uuid.UUID
	Company   string
	Slug      string
	Position  string
	Status    Status
	OwnerID   uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// QuerySchema whitelists the fields list endpoints may filter, sort and
// project on. owner_id is always loaded so the owner can be resolved.
var QuerySchema = query.NewSchema(map[string]query.Column{
	"id":         {Name: "id", Kind: query.KindUUID},
	"company":    {Name: "company"},
	"slug":       {Name: "slug"},
	"position":   {Name: "position"},
	"status":     {Name: "status"},
	"created_by": {Name: "owner_id", Kind: query.KindUUID},
	"created_at": {Name: "created_at", Kind: query.KindTime},
	"updated_at": {Name: "updated_at", Kind: query.KindTime},
}, "id", "owner_id")
