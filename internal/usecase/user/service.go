package user

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"job-tracker/internal/config"
	domainJob "job-tracker/internal/domain/job"
	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	"job-tracker/internal/query"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

// Service implements user use cases
type Service struct {
	userRepo domainUser.Repository
	jobRepo  domainJob.Repository
	tx       domainUser.Transactor
	mailer   domainUser.Mailer
	config   *config.Config
	now      func() time.Time
}

func NewService(
	userRepo domainUser.Repository,
	jobRepo domainJob.Repository,
	tx domainUser.Transactor,
	mailer domainUser.Mailer,
	cfg *config.Config,
) *Service {
	return &Service{
		userRepo: userRepo,
		jobRepo:  jobRepo,
		tx:       tx,
		mailer:   mailer,
		config:   cfg,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.Name = utils.SanitizeName(req.Name)
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}

	hashedPassword, err := utils.HashPassword(req.Password, s.config.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// Roles are never self-assigned; admins promote through UpdateUser.
	user := &domainUser.User{
		Name:         req.Name,
		Email:        req.Email,
		Role:         domainUser.RoleUser,
		PasswordHash: hashedPassword,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			logger.Warn("Registration attempt with existing email",
				zap.String("email", req.Email),
				zap.String("event", "registration_failed_duplicate_email"),
			)
			return nil, duplicateEmail(err)
		}
		return nil, err
	}

	logger.Info("User registered successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("email", user.Email),
		zap.String("event", "user_registered"),
	)

	return s.issueToken(user)
}

func (s *Service) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.Email = utils.SanitizeEmail(req.Email)
	if req.Email == "" || req.Password == "" {
		return nil, appErrors.NewValidationError("Please provide email and password!", nil)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Warn("Login attempt with non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "user_not_found"),
			)
			return nil, appErrors.NewAuthenticationError("Incorrect email or password", appErrors.ErrInvalidCredentials)
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, req.Password) {
		logger.Warn("Login attempt with invalid password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "login_failed_invalid_password"),
		)
		return nil, appErrors.NewAuthenticationError("Incorrect email or password", appErrors.ErrInvalidCredentials)
	}

	logger.Info("User logged in successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("role", string(user.Role)),
		zap.String("event", "login_success"),
	)

	return s.issueToken(user)
}

func (s *Service) UpdatePassword(ctx context.Context, userID uuid.UUID, req *UpdatePasswordRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, req.CurrentPassword) {
		logger.Warn("Password change attempt with invalid current password",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_change_failed_invalid_current_password"),
		)
		return nil, appErrors.NewAuthenticationError("Your current password is wrong", appErrors.ErrInvalidCredentials)
	}

	hashedPassword, err := utils.HashPassword(req.Password, s.config.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := s.passwordChangedAt()
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword, changedAt); err != nil {
		return nil, s.notFound(userID, err)
	}
	user.PasswordHash = hashedPassword
	user.PasswordChangedAt = &changedAt

	logger.Info("Password changed successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "password_change_success"),
	)

	return s.issueToken(user)
}

func (s *Service) GetUser(ctx context.Context, userID uuid.UUID) (*UserResponse, error) {
	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ToUserResponse(user), nil
}

func (s *Service) ListUsers(ctx context.Context, req query.Request) ([]*UserResponse, error) {
	users, err := s.userRepo.List(ctx, req)
	if err != nil {
		return nil, err
	}
	return ToUserResponses(users), nil
}

func (s *Service) UpdateMe(ctx context.Context, userID uuid.UUID, req *UpdateMeRequest) (*UserResponse, error) {
	if req.Password != nil || req.ConfirmPassword != nil {
		return nil, appErrors.NewValidationError("This route is not for password updates. Please use /update-user-password.", nil)
	}
	return s.update(ctx, userID, req.Name, req.Email, nil)
}

func (s *Service) UpdateUser(ctx context.Context, userID uuid.UUID, req *UpdateUserRequest) (*UserResponse, error) {
	if req.Password != nil {
		return nil, appErrors.NewValidationError("This route is not for password updates. Please use /update-user-password.", nil)
	}
	var role *domainUser.Role
	if req.Role != nil {
		r := domainUser.Role(*req.Role)
		if !r.Valid() {
			return nil, appErrors.NewValidationError("Role is either: admin, user", domainUser.ErrInvalidUserRole)
		}
		role = &r
	}
	return s.update(ctx, userID, req.Name, req.Email, role)
}

func (s *Service) update(ctx context.Context, userID uuid.UUID, name, email *string, role *domainUser.Role) (*UserResponse, error) {
	patch := UpdateMeRequest{Name: name, Email: email}
	if patch.Name != nil {
		sanitized := utils.SanitizeName(*patch.Name)
		patch.Name = &sanitized
	}
	if patch.Email != nil {
		sanitized := utils.SanitizeEmail(*patch.Email)
		patch.Email = &sanitized
	}
	if err := utils.ValidateStruct(&patch); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}

	user, err := s.getUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.Name != nil {
		user.Name = *patch.Name
	}
	if patch.Email != nil {
		user.Email = *patch.Email
	}
	if role != nil {
		user.Role = *role
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domainUser.ErrUserAlreadyExists) {
			return nil, duplicateEmail(err)
		}
		return nil, s.notFound(userID, err)
	}

	logger.Info("User updated",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "user_updated"),
	)

	return ToUserResponse(user), nil
}

// DeleteUser soft-deletes the user and removes the jobs they own in one
// transaction.
func (s *Service) DeleteUser(ctx context.Context, userID uuid.UUID) error {
	var removed int64
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.userRepo.Deactivate(ctx, userID); err != nil {
			return s.notFound(userID, err)
		}

		n, err := s.jobRepo.DeleteByOwner(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to delete jobs of user %s: %w", userID, err)
		}
		removed = n
		return nil
	})
	if err != nil {
		return err
	}

	logger.Info("User deactivated",
		zap.String("user_id", userID.String()),
		zap.Int64("jobs_deleted", removed),
		zap.String("event", "user_deleted"),
	)

	return nil
}

func (s *Service) getUser(ctx context.Context, userID uuid.UUID) (*domainUser.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, s.notFound(userID, err)
	}
	return user, nil
}

func (s *Service) notFound(userID uuid.UUID, err error) error {
	if errors.Is(err, domainUser.ErrUserNotFound) {
		return appErrors.NewNotFoundError(fmt.Sprintf("No user found with that ID: %s", userID), err)
	}
	return err
}

// passwordChangedAt backdates the change by a second so a token issued in
// the same request is not considered stale.
func (s *Service) passwordChangedAt() time.Time {
	return s.now().Add(-time.Second)
}

func duplicateEmail(err error) error {
	return appErrors.NewConflictError("Duplicate field value: email. Please use another value!", err)
}
