package background

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// RevokedSessionCleaner deletes revocation rows for sessions that have expired anyway
type RevokedSessionCleaner interface {
	CleanupExpired(ctx context.Context, now time.Time) (int64, error)
}

// LoginTokenCleaner clears one-time login tokens past their expiry
type LoginTokenCleaner interface {
	ClearExpiredLoginTokens(ctx context.Context, now time.Time) (int64, error)
}

// CleanupManager periodically removes expired revoked sessions and expired
// one-time login tokens from the database
type CleanupManager struct {
	sessions RevokedSessionCleaner
	tokens   LoginTokenCleaner
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time
	stopCh   chan struct{}
	stopOnce sync.Once
}

// DefaultCleanupInterval replaces a non-positive interval
const DefaultCleanupInterval = time.Hour

// NewCleanupManager creates a new cleanup manager
func NewCleanupManager(
	sessions RevokedSessionCleaner,
	tokens LoginTokenCleaner,
	logger *slog.Logger,
	interval time.Duration,
) *CleanupManager {
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	return &CleanupManager{
		sessions: sessions,
		tokens:   tokens,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start runs a cleanup immediately and then every interval, until ctx is
// cancelled or Stop is called
func (cm *CleanupManager) Start(ctx context.Context) {
	ticker := time.NewTicker(cm.interval)
	defer ticker.Stop()

	cm.runCleanup(ctx)

	for {
		select {
		case <-ticker.C:
			cm.runCleanup(ctx)
		case <-cm.stopCh:
			cm.logger.Info("cleanup manager stopped")
			return
		case <-ctx.Done():
			cm.logger.Info("cleanup manager context cancelled")
			return
		}
	}
}

func (cm *CleanupManager) runCleanup(ctx context.Context) {
	cleanupCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	now := cm.now()

	if n, err := cm.sessions.CleanupExpired(cleanupCtx, now); err != nil {
		cm.logger.Error("failed to cleanup revoked sessions", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("revoked session cleanup completed", slog.Int64("rows_deleted", n))
	}

	if n, err := cm.tokens.ClearExpiredLoginTokens(cleanupCtx, now); err != nil {
		cm.logger.Error("failed to clear expired login tokens", slog.Any("error", err))
	} else if n > 0 {
		cm.logger.Info("expired login tokens cleared", slog.Int64("rows_updated", n))
	}
}

// Stop signals the cleanup manager to stop. Safe to call more than once.
func (cm *CleanupManager) Stop() {
	cm.stopOnce.Do(func() { close(cm.stopCh) })
}
