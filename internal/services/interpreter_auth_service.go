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

// InterpreterAuthStore is the slice of the credential store used by sign-in
type InterpreterAuthStore interface {
	GetInterpreterByEmail(ctx context.Context, email string) (*models.InterpreterAccount, error)
	GetInterpreterByUserID(ctx context.Context, userID string) (*models.InterpreterAccount, error)
	StampLastLogin(ctx context.Context, credentialID string, at time.Time) error
	CompleteFirstLogin(ctx context.Context, userID, credentialID, passwordHash string, at time.Time) error
}

// SessionRevoker records signed-out sessions
type SessionRevoker interface {
	RevokeSession(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error
}

// SessionIssuer signs session credentials
type SessionIssuer interface {
	CreateSessionCredential(payload models.SessionPayload) (string, error)
	TTL() time.Duration
}

// InterpreterAuthService implements interpreter sign-in, sign-out and the
// current-interpreter view.
type InterpreterAuthService struct {
	store       InterpreterAuthStore
	revocations SessionRevoker
	sessions    SessionIssuer
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

// NewInterpreterAuthService creates a new InterpreterAuthService
func NewInterpreterAuthService(store InterpreterAuthStore, revocations SessionRevoker, sessions SessionIssuer, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *InterpreterAuthService {
	return &InterpreterAuthService{
		store:       store,
		revocations: revocations,
		sessions:    sessions,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// SignInInput is one sign-in attempt. Token, when set, takes precedence over Password.
type SignInInput struct {
	Email       string
	Password    string
	Token       string
	NewPassword string
	IPAddress   string
	UserAgent   string
}

// SignInResult is returned on a successful sign-in
type SignInResult struct {
	User                  *models.User
	Profile               *models.InterpreterProfile
	SessionToken          string
	SessionTTL            time.Duration
	RequirePasswordChange bool
}

// SignIn authenticates an interpreter by one-time token or password and, on
// first login with a new password, rotates to a permanent password.
//
// All authentication failures wrap models.ErrUnauthorized. Store and signing
// failures are logged and returned as models.ErrInternalServer. Nothing is
// persisted unless a session credential has already been signed.
func (s *InterpreterAuthService) SignIn(ctx context.Context, in SignInInput) (*SignInResult, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	audit := pkglogger.AuditEvent{IPAddress: in.IPAddress, UserAgent: in.UserAgent, Method: "password"}
	if in.Token != "" {
		audit.Method = "token"
	}

	if email == "" {
		return nil, s.reject(ctx, audit, "account_not_found", models.ErrAccountNotFound)
	}

	account, err := s.store.GetInterpreterByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, s.reject(ctx, audit, "account_not_found", models.ErrAccountNotFound)
		}
		s.logger.Error("failed to look up interpreter",
			slog.String("email", pkglogger.SanitizedEmail(email)),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	audit.UserID = account.User.ID

	cred := account.Credential
	if cred == nil {
		s.logger.Error("interpreter profile has no credential record",
			slog.String("user_id", account.User.ID),
			slog.String("profile_id", account.Profile.ID))
		return nil, s.reject(ctx, audit, "credentials_missing", models.ErrCredentialsMissing)
	}

	now := s.now()
	switch {
	case in.Token != "":
		if !cred.TokenMatches(in.Token, now) {
			return nil, s.reject(ctx, audit, "invalid_token", models.ErrInvalidToken)
		}
	default:
		if !passwordMatches(account, in.Password) {
			return nil, s.reject(ctx, audit, "invalid_credentials", models.ErrInvalidCredentials)
		}
	}

	rotate := cred.FirstLogin && in.NewPassword != ""
	var newHash string
	if rotate {
		if err := pkgauth.ValidatePassword(in.NewPassword); err != nil {
			s.auditLogger.LogPasswordChange(ctx, account.User.ID, in.IPAddress, false)
			return nil, models.ErrWeakPassword
		}
		if newHash, err = pkgauth.HashPassword(in.NewPassword); err != nil {
			s.logger.Error("failed to hash new password", slog.String("user_id", account.User.ID), slog.Any("error", err))
			return nil, models.ErrInternalServer
		}
	}

	// Sign first: a signing failure must leave the credential untouched
	sessionToken, err := s.sessions.CreateSessionCredential(models.SessionPayload{
		UserID:    account.User.ID,
		Email:     account.User.Email,
		Role:      account.User.Role,
		ProfileID: account.Profile.ID,
	})
	if err != nil {
		s.logger.Error("failed to sign session credential", slog.String("user_id", account.User.ID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if rotate {
		err = s.store.CompleteFirstLogin(ctx, account.User.ID, cred.ID, newHash, now)
	} else {
		err = s.store.StampLastLogin(ctx, cred.ID, now)
	}
	if err != nil {
		s.logger.Error("failed to persist sign-in",
			slog.String("user_id", account.User.ID),
			slog.Bool("rotation", rotate),
			slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	if rotate {
		s.auditLogger.LogPasswordChange(ctx, account.User.ID, in.IPAddress, true)
	}
	audit.Success = true
	s.auditLogger.LogSignIn(ctx, audit)

	return &SignInResult{
		User:                  account.User,
		Profile:               account.Profile,
		SessionToken:          sessionToken,
		SessionTTL:            s.sessions.TTL(),
		RequirePasswordChange: cred.FirstLogin && !rotate,
	}, nil
}

// passwordMatches accepts the temporary password or the permanent one
func passwordMatches(account *models.InterpreterAccount, password string) bool {
	if password == "" {
		return false
	}
	if cred := account.Credential; cred.HasTempPassword() && pkgauth.VerifyPassword(password, *cred.TempPasswordHash) {
		return true
	}
	return account.User.HasPassword() && pkgauth.VerifyPassword(password, account.User.PasswordHash)
}

func (s *InterpreterAuthService) reject(ctx context.Context, audit pkglogger.AuditEvent, reason string, err error) error {
	audit.FailureReason = reason
	s.auditLogger.LogSignIn(ctx, audit)
	return err
}

// SignOut revokes the session until it would have expired
func (s *InterpreterAuthService) SignOut(ctx context.Context, claims *models.SessionClaims) error {
	if claims == nil || claims.ID == "" || claims.ExpiresAt == nil {
		return models.ErrInvalidOrExpiredSession
	}

	if err := s.revocations.RevokeSession(ctx, claims.ID, claims.UserID, claims.ExpiresAt.Time, "logout"); err != nil {
		s.logger.Error("failed to revoke session", slog.String("user_id", claims.UserID), slog.Any("error", err))
		return models.ErrInternalServer
	}

	s.auditLogger.LogSignOut(ctx, claims.UserID)
	return nil
}

// CurrentInterpreter loads the signed-in interpreter's account.
// Returns models.ErrNotFound if the user has no interpreter profile.
func (s *InterpreterAuthService) CurrentInterpreter(ctx context.Context, userID string) (*models.InterpreterAccount, error) {
	account, err := s.store.GetInterpreterByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load interpreter", slog.String("user_id", userID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}
	return account, nil
}
