package logger

import (
	"context"
	"log/slog"
	"time"
)

// Audit event types
const (
	EventInterpreterSignIn  = "interpreter_sign_in"
	EventUserSignIn         = "user_sign_in"
	EventFirstLoginRotation = "first_login_password_set"
	EventSignOut            = "sign_out"
	EventCredentialReissue  = "credential_reissue"
)

// AuditEvent represents a security audit event
type AuditEvent struct {
	EventType     string
	UserID        string
	ActorID       string // who performed the action when not the subject
	IPAddress     string
	UserAgent     string
	Method        string // "token" or "password" for sign-ins
	Success       bool
	FailureReason string
}

// AuditLogger provides audit logging functionality
type AuditLogger struct {
	logger *slog.Logger
}

// NewAuditLogger creates a new audit logger
func NewAuditLogger(logger *slog.Logger) *AuditLogger {
	return &AuditLogger{
		logger: logger,
	}
}

// Log writes one audit record. Failures are logged at WARN, successes at INFO.
func (al *AuditLogger) Log(ctx context.Context, auditType string, event AuditEvent) {
	attrs := []slog.Attr{
		slog.String("audit_type", auditType),
		slog.String("event_type", event.EventType),
		slog.Bool("success", event.Success),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}

	if event.UserID != "" {
		attrs = append(attrs, slog.String("user_id", event.UserID))
	}
	if event.ActorID != "" {
		attrs = append(attrs, slog.String("actor_id", event.ActorID))
	}
	if event.IPAddress != "" {
		attrs = append(attrs, slog.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		attrs = append(attrs, slog.String("user_agent", event.UserAgent))
	}
	if event.Method != "" {
		attrs = append(attrs, slog.String("method", event.Method))
	}
	if event.FailureReason != "" {
		attrs = append(attrs, slog.String("failure_reason", event.FailureReason))
	}

	level := slog.LevelInfo
	if !event.Success {
		level = slog.LevelWarn
	}
	al.logger.LogAttrs(ctx, level, "audit", attrs...)
}

// LogSignIn logs an interpreter sign-in attempt
func (al *AuditLogger) LogSignIn(ctx context.Context, event AuditEvent) {
	event.EventType = EventInterpreterSignIn
	al.Log(ctx, "auth", event)
}

// LogUserSignIn logs a password sign-in by a non-interpreter role
func (al *AuditLogger) LogUserSignIn(ctx context.Context, event AuditEvent) {
	event.EventType = EventUserSignIn
	al.Log(ctx, "auth", event)
}

// LogPasswordChange logs the first-login password rotation
func (al *AuditLogger) LogPasswordChange(ctx context.Context, userID, ipAddress string, success bool) {
	al.Log(ctx, "password", AuditEvent{
		EventType: EventFirstLoginRotation,
		UserID:    userID,
		IPAddress: ipAddress,
		Success:   success,
	})
}

// LogSignOut logs a session revocation
func (al *AuditLogger) LogSignOut(ctx context.Context, userID string) {
	al.Log(ctx, "auth", AuditEvent{EventType: EventSignOut, UserID: userID, Success: true})
}

// LogCredentialReissue logs an admin issuing fresh first-login credentials
func (al *AuditLogger) LogCredentialReissue(ctx context.Context, userID, actorID string, success bool, reason string) {
	al.Log(ctx, "account", AuditEvent{
		EventType:     EventCredentialReissue,
		UserID:        userID,
		ActorID:       actorID,
		Success:       success,
		FailureReason: reason,
	})
}
