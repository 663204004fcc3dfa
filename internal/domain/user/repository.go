package user

import (
	"context"
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/query"
)

// Repository defines the interface for user repository operations. Every
// lookup only sees active users.
type Repository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, userID uuid.UUID) (*User, error)
	GetByIDs(ctx context.Context, userIDs []uuid.UUID) ([]*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	List(ctx context.Context, req query.Request) ([]*User, error)
	// Update persists name, email and role.
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, changedAt time.Time) error
	Deactivate(ctx context.Context, userID uuid.UUID) error

	// SetResetToken stores or, with nil arguments, clears the reset token.
	SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash *string, expiresAt *time.Time) error
	GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*User, error)
	// ConsumeResetToken sets the new password only if tokenHash is still the
	// stored one and has not expired at now, clearing it in the same
	// statement. ErrResetTokenInvalid otherwise.
	ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string, changedAt, now time.Time) error
	ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Transactor runs fn atomically. Repository calls made with the context
// passed to fn take part in the transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
