package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"job-tracker/internal/domain/user"
	"job-tracker/internal/infrastructure/database/postgres/models"
	"job-tracker/internal/query"
)

// UserRepository implements user.Repository on Postgres
type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) user.Repository {
	return &UserRepository{db: db}
}

func (r *UserRepository) users(ctx context.Context) *gorm.DB {
	return excludeInactive(r.db.conn(ctx).Model(&models.UserModel{}))
}

func (r *UserRepository) Create(ctx context.Context, u *user.User) error {
	now := time.Now().UTC()
	u.ID = uuid.New()
	u.CreatedAt = now
	u.UpdatedAt = now
	u.Active = true
	if u.Role == "" {
		u.Role = user.RoleUser
	}

	dbModel := toUserModel(u)
	if err := r.db.conn(ctx).Create(dbModel).Error; err != nil {
		if isUniqueViolation(err, "email") {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*user.User, error) {
	var dbModel models.UserModel
	err := r.users(ctx).Where("id = ?", userID).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) GetByIDs(ctx context.Context, userIDs []uuid.UUID) ([]*user.User, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	var dbModels []models.UserModel
	if err := r.users(ctx).Where("id IN ?", userIDs).Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to get users: %w", err)
	}

	return toUserEntities(dbModels), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	var dbModel models.UserModel
	err := r.users(ctx).Where("email = ?", email).First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) List(ctx context.Context, req query.Request) ([]*user.User, error) {
	db, err := applyFeatures(r.users(ctx), user.QuerySchema, req)
	if err != nil {
		return nil, err
	}

	var dbModels []models.UserModel
	if err := db.Find(&dbModels).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	return toUserEntities(dbModels), nil
}

func (r *UserRepository) Update(ctx context.Context, u *user.User) error {
	u.UpdatedAt = time.Now().UTC()

	result := r.users(ctx).
		Where("id = ?", u.ID).
		Updates(map[string]interface{}{
			"name":       u.Name,
			"email":      u.Email,
			"role":       string(u.Role),
			"updated_at": u.UpdatedAt,
		})

	if result.Error != nil {
		if isUniqueViolation(result.Error, "email") {
			return user.ErrUserAlreadyExists
		}
		return fmt.Errorf("failed to update user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) UpdatePassword(ctx context.Context, userID uuid.UUID, passwordHash string, changedAt time.Time) error {
	result := r.users(ctx).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"password_hash":       passwordHash,
			"password_changed_at": changedAt,
			"updated_at":          time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to update password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) Deactivate(ctx context.Context, userID uuid.UUID) error {
	result := r.users(ctx).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"active":     false,
			"updated_at": time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to deactivate user: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) SetResetToken(ctx context.Context, userID uuid.UUID, tokenHash *string, expiresAt *time.Time) error {
	result := r.users(ctx).
		Where("id = ?", userID).
		Updates(map[string]interface{}{
			"reset_token_hash":       tokenHash,
			"reset_token_expires_at": expiresAt,
		})

	if result.Error != nil {
		return fmt.Errorf("failed to set reset token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrUserNotFound
	}

	return nil
}

func (r *UserRepository) GetByResetToken(ctx context.Context, tokenHash string, now time.Time) (*user.User, error) {
	var dbModel models.UserModel
	err := r.users(ctx).
		Where("reset_token_hash = ? AND reset_token_expires_at > ?", tokenHash, now).
		First(&dbModel).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, user.ErrResetTokenInvalid
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by reset token: %w", err)
	}

	return toUserEntity(&dbModel), nil
}

func (r *UserRepository) ConsumeResetToken(ctx context.Context, userID uuid.UUID, tokenHash, passwordHash string, changedAt, now time.Time) error {
	result := r.users(ctx).
		Where("id = ? AND reset_token_hash = ? AND reset_token_expires_at > ?", userID, tokenHash, now).
		Updates(map[string]interface{}{
			"password_hash":          passwordHash,
			"password_changed_at":    changedAt,
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
			"updated_at":             time.Now().UTC(),
		})

	if result.Error != nil {
		return fmt.Errorf("failed to reset password: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return user.ErrResetTokenInvalid
	}

	return nil
}

func (r *UserRepository) ClearExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.conn(ctx).
		Model(&models.UserModel{}).
		Where("reset_token_expires_at IS NOT NULL AND reset_token_expires_at <= ?", now).
		Updates(map[string]interface{}{
			"reset_token_hash":       nil,
			"reset_token_expires_at": nil,
		})

	if result.Error != nil {
		return 0, fmt.Errorf("failed to clear expired reset tokens: %w", result.Error)
	}

	return result.RowsAffected, nil
}

func toUserModel(u *user.User) *models.UserModel {
	return &models.UserModel{
		ID:                  u.ID,
		Name:                u.Name,
		Email:               u.Email,
		Role:                string(u.Role),
		PasswordHash:        u.PasswordHash,
		PasswordChangedAt:   u.PasswordChangedAt,
		ResetTokenHash:      u.ResetTokenHash,
		ResetTokenExpiresAt: u.ResetTokenExpiresAt,
		Active:              u.Active,
		CreatedAt:           u.CreatedAt,
		UpdatedAt:           u.UpdatedAt,
	}
}

func toUserEntity(m *models.UserModel) *user.User {
	return &user.User{
		ID:                  m.ID,
		Name:                m.Name,
		Email:               m.Email,
		Role:                user.Role(m.Role),
		PasswordHash:        m.PasswordHash,
		PasswordChangedAt:   m.PasswordChangedAt,
		ResetTokenHash:      m.ResetTokenHash,
		ResetTokenExpiresAt: m.ResetTokenExpiresAt,
		Active:              m.Active,
		CreatedAt:           m.CreatedAt,
		UpdatedAt:           m.UpdatedAt,
	}
}

func toUserEntities(dbModels []models.UserModel) []*user.User {
	users := make([]*user.User, len(dbModels))
	for i := range dbModels {
		users[i] = toUserEntity(&dbModels[i])
	}
	return users
}
