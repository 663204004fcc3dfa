package user

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"

	"go.uber.org/zap"

	domainUser "job-tracker/internal/domain/user"
	"job-tracker/internal/logger"
	appErrors "job-tracker/pkg/errors"
	"job-tracker/pkg/utils"
)

var resetEmailHTML = template.Must(template.New("reset").Parse(`<p>Hi {{.FirstName}},</p>
<p>Forgot your password? Submit a PATCH request with your new password and confirm_password to:</p>
<p><a href="{{.URL}}">{{.URL}}</a></p>
<p>This link is valid for {{.Minutes}} minutes. If you didn't forget your password, please ignore this email!</p>`))

type resetEmailData struct {
	FirstName string
	URL       string
	Minutes   int
}

// ForgotPassword stores a fresh reset token for the user and emails the raw
// value as part of resetURLBase. The token is cleared again when the email
// cannot be delivered.
func (s *Service) ForgotPassword(ctx context.Context, req *ForgotPasswordRequest, resetURLBase string) error {
	req.Email = utils.SanitizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return appErrors.NewValidationError(err.Error(), err)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, domainUser.ErrUserNotFound) {
			logger.Info("Password reset requested for non-existent email",
				zap.String("email", req.Email),
				zap.String("event", "password_reset_requested_non_existent_email"),
			)
			return appErrors.NewNotFoundError("There is no user with that email address.", err)
		}
		return fmt.Errorf("failed to retrieve user: %w", err)
	}

	raw, hashed, err := utils.GenerateResetToken()
	if err != nil {
		return err
	}
	expiresAt := s.now().Add(s.config.Auth.ResetTokenTTL)

	if err := s.userRepo.SetResetToken(ctx, user.ID, &hashed, &expiresAt); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	msg, err := s.resetMessage(user, resetURLBase+raw)
	if err == nil {
		err = s.mailer.Send(ctx, msg)
	}
	if err != nil {
		logger.Error("Failed to send password reset email",
			zap.String("user_id", user.ID.String()),
			zap.String("event", "password_reset_email_failed"),
			zap.Error(err),
		)
		if clearErr := s.userRepo.SetResetToken(ctx, user.ID, nil, nil); clearErr != nil {
			logger.Error("Failed to clear reset token after email failure",
				zap.String("user_id", user.ID.String()),
				zap.Error(clearErr),
			)
		}
		return appErrors.NewInternalError("There was an error sending the email. Try again later!", err)
	}

	logger.Info("Password reset token generated",
		zap.String("user_id", user.ID.String()),
		zap.Time("expires_at", expiresAt),
		zap.String("event", "password_reset_token_generated"),
	)

	return nil
}

// ResetPassword consumes a reset token and logs the user in with the new
// password. A token can be consumed once.
func (s *Service) ResetPassword(ctx context.Context, rawToken string, req *ResetPasswordRequest) (*AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}
	if err := utils.ValidatePassword(req.Password); err != nil {
		return nil, appErrors.NewValidationError(err.Error(), err)
	}

	hashed := utils.HashToken(rawToken)
	now := s.now()
	user, err := s.userRepo.GetByResetToken(ctx, hashed, now)
	if err != nil {
		if errors.Is(err, domainUser.ErrResetTokenInvalid) {
			logger.Warn("Password reset attempt with invalid token",
				zap.String("event", "password_reset_failed_invalid_token"),
			)
			return nil, appErrors.NewValidationError("Token is invalid or has expired", err)
		}
		return nil, err
	}

	hashedPassword, err := utils.HashPassword(req.Password, s.config.Auth.BcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	changedAt := s.passwordChangedAt()
	if err := s.userRepo.ConsumeResetToken(ctx, user.ID, hashed, hashedPassword, changedAt, now); err != nil {
		if errors.Is(err, domainUser.ErrResetTokenInvalid) {
			return nil, appErrors.NewValidationError("Token is invalid or has expired", err)
		}
		return nil, err
	}
	user.PasswordHash = hashedPassword
	user.PasswordChangedAt = &changedAt
	user.ResetTokenHash = nil
	user.ResetTokenExpiresAt = nil

	logger.Info("Password reset successfully",
		zap.String("user_id", user.ID.String()),
		zap.String("event", "password_reset_success"),
	)

	return s.issueToken(user)
}

func (s *Service) resetMessage(user *domainUser.User, url string) (*domainUser.Message, error) {
	minutes := int(s.config.Auth.ResetTokenTTL.Minutes())

	var html bytes.Buffer
	if err := resetEmailHTML.Execute(&html, resetEmailData{FirstName: user.FirstName(), URL: url, Minutes: minutes}); err != nil {
		return nil, fmt.Errorf("failed to render reset email: %w", err)
	}

	text := fmt.Sprintf(
		"Hi %s,\n\nForgot your password? Submit a PATCH request with your new password and confirm_password to: %s\n\nThis link is valid for %d minutes. If you didn't forget your password, please ignore this email!\n",
		user.FirstName(), url, minutes,
	)

	return &domainUser.Message{
		To:      user.Email,
		Subject: fmt.Sprintf("Your password reset token (valid for %d min)", minutes),
		Text:    text,
		HTML:    html.String(),
	}, nil
}
