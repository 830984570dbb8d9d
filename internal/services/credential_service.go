package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/interplink/internal/models"
	pkgauth "github.com/BradenHooton/interplink/pkg/auth"
	pkglogger "github.com/BradenHooton/interplink/pkg/logger"
)

// CredentialStore is the slice of the credential store used by admins
type CredentialStore interface {
	GetInterpreterByProfileID(ctx context.Context, profileID string) (*models.InterpreterAccount, error)
	ListInterpreters(ctx context.Context, limit, offset int) ([]*models.InterpreterAccount, error)
	CountInterpreters(ctx context.Context) (int, error)
	IssueCredential(ctx context.Context, profileID, tempPasswordHash, loginToken string, tokenExpiry, at time.Time,
		deliver func(ctx context.Context, cred *models.Credential) error) (*models.Credential, error)
}

// CredentialConfig controls freshly issued first-login credentials
type CredentialConfig struct {
	TempPasswordLength int
	LoginTokenTTL      time.Duration
}

// CredentialService issues first-login credentials and lists interpreters for admins
type CredentialService struct {
	store       CredentialStore
	mailer      CredentialMailer
	config      CredentialConfig
	logger      *slog.Logger
	auditLogger *pkglogger.AuditLogger
	now         func() time.Time
}

func NewCredentialService(store CredentialStore, mailer CredentialMailer, cfg CredentialConfig, logger *slog.Logger, auditLogger *pkglogger.AuditLogger) *CredentialService {
	if cfg.TempPasswordLength == 0 {
		cfg.TempPasswordLength = pkgauth.DefaultTempPasswordLength
	}
	if cfg.LoginTokenTTL == 0 {
		cfg.LoginTokenTTL = 72 * time.Hour
	}
	return &CredentialService{
		store:       store,
		mailer:      mailer,
		config:      cfg,
		logger:      logger,
		auditLogger: auditLogger,
		now:         time.Now,
	}
}

// ReissueResult reports what was issued, never the secrets themselves
type ReissueResult struct {
	ProfileID  string                  `json:"profileId"`
	Credential models.CredentialStatus `json:"credential"`
}

// ReissueCredentials generates a new temporary password and login token for
// an interpreter, puts the account back into first-login state and e-mails
// the secrets. If delivery fails nothing is stored.
func (s *CredentialService) ReissueCredentials(ctx context.Context, profileID, actorID string) (*ReissueResult, error) {
	account, err := s.store.GetInterpreterByProfileID(ctx, profileID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) || errors.Is(err, models.ErrBadRequest) {
			return nil, models.ErrNotFound
		}
		s.logger.Error("failed to load interpreter for reissue", slog.String("profile_id", profileID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	tempPassword, err := pkgauth.GenerateTempPassword(s.config.TempPasswordLength)
	if err != nil {
		return nil, s.internal("failed to generate temp password", err)
	}
	loginToken, err := pkgauth.GenerateLoginToken()
	if err != nil {
		return nil, s.internal("failed to generate login token", err)
	}
	tempHash, err := pkgauth.HashPassword(tempPassword)
	if err != nil {
		return nil, s.internal("failed to hash temp password", err)
	}

	now := s.now()
	expiry := now.Add(s.config.LoginTokenTTL)

	cred, err := s.store.IssueCredential(ctx, profileID, tempHash, loginToken, expiry, now,
		func(ctx context.Context, _ *models.Credential) error {
			return s.mailer.SendCredentials(ctx, CredentialNotice{
				Email:        account.User.Email,
				Name:         account.Profile.FirstName,
				TempPassword: tempPassword,
				LoginToken:   loginToken,
				ExpiresAt:    expiry,
			})
		},
	)
	if err != nil {
		s.auditLogger.LogCredentialReissue(ctx, account.User.ID, actorID, false, "issue_failed")
		if errors.Is(err, ErrMailerDisabled) {
			return nil, ErrMailerDisabled
		}
		s.logger.Error("failed to issue credentials", slog.String("profile_id", profileID), slog.Any("error", err))
		return nil, models.ErrInternalServer
	}

	s.auditLogger.LogCredentialReissue(ctx, account.User.ID, actorID, true, "")
	return &ReissueResult{ProfileID: profileID, Credential: cred.Status()}, nil
}

// InterpreterPage is one page of the admin interpreter listing
type InterpreterPage struct {
	Items  []*models.InterpreterAccount
	Total  int
	Limit  int
	Offset int
}

// ListInterpreters returns a page of interpreter accounts
func (s *CredentialService) ListInterpreters(ctx context.Context, limit, offset int) (*InterpreterPage, error) {
	items, err := s.store.ListInterpreters(ctx, limit, offset)
	if err != nil {
		return nil, s.internal("failed to list interpreters", err)
	}
	total, err := s.store.CountInterpreters(ctx)
	if err != nil {
		return nil, s.internal("failed to count interpreters", err)
	}
	return &InterpreterPage{Items: items, Total: total, Limit: limit, Offset: offset}, nil
}

func (s *CredentialService) internal(msg string, err error) error {
	s.logger.Error(msg, slog.Any("error", err))
	return fmt.Errorf("%w: %s", models.ErrInternalServer, msg)
}
