package user

import (
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/query"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// User represents a user entity in the domain
type User struct {
	ID                  uuid.UUID
	Name                string
	Email               string
	Role                Role
	PasswordHash        string
	PasswordChangedAt   *time.Time
	ResetTokenHash      *string
	ResetTokenExpiresAt *time.Time
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// FirstName is the first word of the name.
func (u *User) FirstName() string {
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		return fields[0]
	}
	return ""
}

func (u *User) Gravatar() string {
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(u.Email))))
	return "https://gravatar.com/avatar/" + hex.EncodeToString(sum[:]) + "?s=200"
}

// ChangedPasswordAfter reports whether the password was changed after a token
// issued at iat. Comparison is done in whole seconds, as JWT iat is.
func (u *User) ChangedPasswordAfter(iat time.Time) bool {
	if u.PasswordChangedAt == nil {
		return false
	}
	return iat.Unix() < u.PasswordChangedAt.Unix()
}

// QuerySchema whitelists the fields list endpoints may filter, sort and
// project on.
var QuerySchema = query.NewSchema(map[string]query.Column{
	"id":         {Name: "id", Kind: query.KindUUID},
	"name":       {Name: "name"},
	"email":      {Name: "email"},
	"role":       {Name: "role"},
	"created_at": {Name: "created_at", Kind: query.KindTime},
	"updated_at": {Name: "updated_at", Kind: query.KindTime},
}, "id")
