package models

import (
	"time"

	"github.com/google/uuid"
)

// JobModel represents the database model for Job
type JobModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Company   string    `gorm:"type:varchar(50);not null;index:idx_jobs_company_owner,priority:1"`
	Slug      string    `gorm:"type:varchar(120);not null;uniqueIndex"`
	Position  string    `gorm:"type:varchar(100);not null"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'"`
	OwnerID   uuid.UUID `gorm:"type:uuid;not null;index:idx_jobs_company_owner,priority:2"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (JobModel) TableName() string {
	return "jobs"
}
