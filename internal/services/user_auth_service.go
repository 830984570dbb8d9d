package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/BradenHooton/interplink/internal/models"
	pkgauth "github.com/BradenHooton/interplink/pkg/auth"
	pkglogger "github.com/BradenHooton/interplink/pkg/logger"
)

// UserLookup finds users by e-mail
type UserLookup interface {
	GetByEmail(ctx context.Context, email string) (*models.User, error)
}

// UserAuthService signs in users who authenticate with a permanent password
// only: admins, super admins and clients. Interpreters use InterpreterAuthService.
type UserAuthService struct {
	users       UserLookup
	sessions    SessionIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
}

// NewUserAuthService creates a new UserAuthService
func NewUserAuthService(users UserLookup, sessions SessionIssuer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *UserAuthService {
	return &UserAuthService{
		users:       users,
		sessions:    sessions,
		logger:      logger,
		auditLogger: auditLogger,
	}
}

// UserSignInInput is one password sign-in attempt
type UserSignInInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

// UserSignInResult is returned on a successful sign-in
type UserSignInResult struct {
	User         *models.User
	SessionToken string
	SessionTTL   time.Duration
}

// SignIn verifies an e-mail and permanent password. Unknown accounts,
// interpreter accounts and wrong passwords all wrap models.ErrUnauthorized.
func (s *UserAuthService) SignIn(ctx context.Context, in UserSignInInput) (*UserSignInResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	audit := pkglogger.AuditEvent{IPAddress: in.IPAddress, UserAgent: in.UserAgent, Method: "password"}

	if email == "" || in.Password == "" {
		return nil, s.reject(ctx, audit, "invalid_credentials", models.ErrInvalidCredentials)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.reject(ctx, audit, "account_not_found", models.ErrAccountNotFound)
		}
		s.logger.Error("failed to look up user",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	audit.UserID = user.ID

	if user.Role == models.RoleInterpreter {
		return nil, s.reject(ctx, audit, "interpreter_account", models.ErrInvalidCredentials)
	}
	if !user.HasPassword() || !pkgauth.VerifyPassword(in.Password, user.PasswordHash) {
		return nil, s.reject(ctx, audit, "invalid_credentials", models.ErrInvalidCredentials)
	}

	sessionToken, err := s.sessions.CreateSessionCredential(models.SessionPayload{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		s.logger.Error("failed to sign session credential", slog.String("user_id", user.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	audit.Success = true
	s.auditLogger.LogUserSignIn(ctx, audit)

	return &UserSignInResult{
		User:         user,
		SessionToken: sessionToken,
		SessionTTL:   s.sessions.TTL(),
	}, nil
}

func (s *UserAuthService) reject(ctx context.Context, audit pkglogger.AuditEvent, reason string, err error) error {
	audit.FailureReason = reason
	s.auditLogger.LogUserSignIn(ctx, audit)
	return err
}
