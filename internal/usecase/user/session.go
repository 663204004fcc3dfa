package user

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

func (s *Service) issueToken(user *domainUser.User) (*AuthResponse, error) {
	token, expiresAt, err := utils.GenerateToken(user.ID, user.Name, s.config.JWT.Secret, s.config.JWT.Expiry, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return &AuthResponse{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      ToUserResponse(user),
	}, nil
}

// Authenticate resolves the user behind a session token. The token must be
// correctly signed and unexpired, its user must still be active, and the
// password must not have changed since the token was issued.
func (s *Service) Authenticate(ctx context.Context, token string) (*domainUser.User, error) {
	if token == "" {
		return nil, appErrors.NewAuthenticationError("You are not logged in! Please log in to get access", appErrors.ErrNotLoggedIn)
	}

	claims, err := utils.ValidateToken(token, s.config.JWT.Secret, s.now())
	if err != nil {
		if errors.Is(err, utils.ErrTokenExpired) {
			return nil, appErrors.NewAuthenticationError("Your token has expired! Please log in again.", appErrors.ErrInvalidToken)
		}
		logger.Debug("Session token rejected", zap.Error(err))
		return nil, appErrors.NewAuthenticationError("Invalid token. Please log in again!", appErrors.ErrInvalidToken)
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			return nil, appErrors.NewAuthenticationError("The user belonging to this token does no longer exist.", appErrors.ErrTokenUserGone)
		}
		return nil, err
	}

	if user.ChangedPasswordAfter(claims.IssuedAt.Time) {
		logger.Info("Stale session token rejected",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "stale_token_rejected"),
		)
		return nil, appErrors.NewAuthenticationError("User recently changed password! Please log in again.", appErrors.ErrStaleToken)
	}

	return user, nil
}
