package models

import (
	"time"

	"github.com/google/uuid"
)

// UserModel represents the database model for User
type UserModel struct {
	ID                  uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name                string     `gorm:"type:varchar(50);not null"`
	Email               string     `gorm:"type:varchar(255);not null;uniqueIndex"`
	Role                string     `gorm:"type:varchar(20);not null;default:'user'"`
	PasswordHash        string     `gorm:"type:varchar(255);not null"`
	PasswordChangedAt   *time.Time `gorm:"type:timestamptz"`
	ResetTokenHash      *string    `gorm:"type:varchar(64);index"`
	ResetTokenExpiresAt *time.Time `gorm:"type:timestamptz"`
	Active              bool       `gorm:"default:true;not null"`
	CreatedAt           time.Time  `gorm:"not null"`
	UpdatedAt           time.Time  `gorm:"not null"`
}

func (UserModel) TableName() string {
	return "users"
}
