package memory

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"job-tracker/internal/domain/user"
	"job-tracker/internal/query"
)

type userRecord = user.User

type UserRepository struct {
	store *Store
}

var _ user.Repository = (*UserRepository)(nil)

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

// active returns a copy of the active user with id. Callers hold the lock.
func (r *UserRepository) active(id uuid.UUID) (*user.User, bool) {
	u, ok := r.store.users[id]
	if !ok || !u.Active {
		return nil, false
	}
	return &u, true
}

func (r *UserRepository) Create(_ context.Context, u *user.User) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.ErrUserAlreadyExists
		}
	}

	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Active = true
	if u.Role == "" {
		u.Role = user.RoleUser
	}
	r.store.users[u.ID] = *u
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, userID uuid.UUID) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	if u, ok := r.active(userID); ok {
		return u, nil
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) GetByIDs(_ context.Context, userIDs []uuid.UUID) ([]*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var out []*user.User
	for _, id := range userIDs {
		if u, ok := r.active(id); ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for id, u := range r.store.users {
		if u.Email == email {
			if found, ok := r.active(id); ok {
				return found, nil
			}
		}
	}
	return nil, user.ErrUserNotFound
}

func (r *UserRepository) List(_ context.Context, req query.Request) ([]*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var ids []uuid.UUID
	for id, u := range r.store.users {
		if u.Active {
			ids = append(ids, id)
		}
	}

	users := r.store.users
	fields := map[string]getter{
		"id":         func(id uuid.UUID) interface{} { return id },
		"name":       func(id uuid.UUID) interface{} { return users[id].Name },
		"email":      func(id uuid.UUID) interface{} { return users[id].Email },
		"role":       func(id uuid.UUID) interface{} { return string(users[id].Role) },
		"created_at": func(id uuid.UUID) interface{} { return users[id].CreatedAt },
		"updated_at": func(id uuid.UUID) interface{} { return users[id].UpdatedAt },
	}

	selected, err := selectIDs(ids, user.QuerySchema, fields, req)
	if err != nil {
		return nil, err
	}

	out := make([]*user.User, 0, len(selected))
	for _, id := range selected {
		u := users[id]
		out = append(out, &u)
	}
	return out, nil
}

func (r *UserRepository) Update(_ context.Context, u *user.User) error {
	return r.mutate(u.ID, func(stored *user.User) error {
		for id, other := range r.store.users {
			if id != u.ID && strings.EqualFold(other.Email, u.Email) {
				return user.ErrUserAlreadyExists
			}
		}
		stored.Name = u.Name
		stored.Email = u.Email
		stored.Role = u.Role
		stored.UpdatedAt = time.Now().UTC()
		u.UpdatedAt = stored.UpdatedAt
		return nil
	})
}

func (r *UserRepository) UpdatePassword(_ context.Context, userID uuid.UUID, passwordHash string, changedAt time.Time) error {
	return r.mutate(userID, func(stored *user.User) error {
		stored.PasswordHash = passwordHash
		stored.PasswordChangedAt = &changedAt
		return nil
	})
}

func (r *UserRepository) Deactivate(_ context.Context, userID uuid.UUID) error {
	return r.mutate(userID, func(stored *user.User) error {
		stored.Active = false
		return nil
	})
}

func (r *UserRepository) SetResetToken(_ context.Context, userID uuid.UUID, tokenHash *string, expiresAt *time.Time) error {
	return r.mutate(userID, func(stored *user.User) error {
		stored.ResetTokenHash = tokenHash
		stored.ResetTokenExpiresAt = expiresAt
		return nil
	})
}

func (r *UserRepository) GetByResetToken(_ context.Context, tokenHash string, now time.Time) (*user.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for id, u := range r.store.users {
		if u.ResetTokenHash != nil && *u.ResetTokenHash == tokenHash &&
			u.ResetTokenExpiresAt != nil && u.ResetTokenExpiresAt.After(now) {
			if found, ok := r.active(id); ok {
				return found, nil
			}
		}
	}
	return nil, user.ErrResetTokenInvalid
}

func (r *UserRepository) ConsumeResetToken(_ context.Context, userID uuid.UUID, tokenHash, passwordHash string, changedAt, now time.Time) error {
	err := r.mutate(userID, func(stored *user.User) error {
		if stored.ResetTokenHash == nil || *stored.ResetTokenHash != tokenHash {
			return user.ErrResetTokenInvalid
		}
		if stored.ResetTokenExpiresAt == nil || !stored.ResetTokenExpiresAt.After(now) {
			return user.ErrResetTokenInvalid
		}
		stored.PasswordHash = passwordHash
		stored.PasswordChangedAt = &changedAt
		stored.ResetTokenHash = nil
		stored.ResetTokenExpiresAt = nil
		return nil
	})
	if errors.Is(err, user.ErrUserNotFound) {
		return user.ErrResetTokenInvalid
	}
	return err
}

func (r *UserRepository) ClearExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	var cleared int64
	for id, u := range r.store.users {
		if u.ResetTokenExpiresAt != nil && !u.ResetTokenExpiresAt.After(now) {
			u.ResetTokenHash = nil
			u.ResetTokenExpiresAt = nil
			r.store.users[id] = u
			cleared++
		}
	}
	return cleared, nil
}

func (r *UserRepository) mutate(userID uuid.UUID, fn func(*user.User) error) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	stored, ok := r.active(userID)
	if !ok {
		return user.ErrUserNotFound
	}
	if err := fn(stored); err != nil {
		return err
	}
	r.store.users[userID] = *stored
	return nil
}
