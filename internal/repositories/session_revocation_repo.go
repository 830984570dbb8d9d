package repositories

import (
	"context"
	"time"

	"github.com/BradenHooton/interplink/internal/database"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRevocationRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRevocationRepository(db *database.DB) *SessionRevocationRepository {
	return &SessionRevocationRepository{pool: db.Pool}
}

// RevokeSession blacklists a session credential until it would have expired anyway.
// Revoking the same jti twice is a no-op.
func (r *SessionRevocationRepository) RevokeSession(ctx context.Context, jti, userID string, expiresAt time.Time, reason string) error {
	query := `
		INSERT INTO revoked_sessions (jti, user_id, reason, revoked_at, expires_at)
		VALUES ($1, $2, $3, NOW(), $4)
		ON CONFLICT (jti) DO NOTHING
	`

	_, err := r.pool.Exec(ctx, query, jti, userID, reason, expiresAt)
	return database.MapPostgresError(err)
}

// IsSessionRevoked checks if a session is in the revocation blacklist
func (r *SessionRevocationRepository) IsSessionRevoked(ctx context.Context, jti string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM revoked_sessions WHERE jti = $1)`

	var exists bool
	if err := r.pool.QueryRow(ctx, query, jti).Scan(&exists); err != nil {
		return false, database.MapPostgresError(err)
	}

	return exists, nil
}

// CleanupExpired removes revocations whose sessions have expired on their own
func (r *SessionRevocationRepository) CleanupExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.pool.Exec(ctx, `DELETE FROM revoked_sessions WHERE expires_at < $1`, now)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}
