package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/interplink/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultSessionTTL is how long a session credential stays valid
const DefaultSessionTTL = 7 * 24 * time.Hour

const sessionIssuer = "interplink"

// SessionManager signs and verifies session credentials (HS256 JWTs)
type SessionManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewSessionManager creates a SessionManager. A non-positive ttl falls back to DefaultSessionTTL.
func NewSessionManager(secret string, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{
		secret: []byte(secret),
		ttl:    ttl,
		now:    time.Now,
	}
}

// TTL returns the default lifetime of issued credentials
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// CreateSessionCredential signs payload with the default TTL
func (m *SessionManager) CreateSessionCredential(payload models.SessionPayload) (string, error) {
	return m.CreateSessionCredentialWithTTL(payload, m.ttl)
}

// CreateSessionCredentialWithTTL signs payload with an explicit lifetime
func (m *SessionManager) CreateSessionCredentialWithTTL(payload models.SessionPayload, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", errors.New("session secret is not configured")
	}
	if payload.UserID == "" || !payload.Role.IsValid() {
		return "", errors.New("session payload requires a user id and a valid role")
	}
	if ttl <= 0 {
		return "", fmt.Errorf("session ttl must be positive, got %s", ttl)
	}

	now := m.now()
	claims := &models.SessionClaims{
		UserID:    payload.UserID,
		Email:     payload.Email,
		Role:      payload.Role,
		ProfileID: payload.ProfileID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Issuer:    sessionIssuer,
			Subject:   payload.UserID,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session credential: %w", err)
	}
	return signed, nil
}

// VerifySessionCredential checks signature and expiry and returns the claims.
// Every failure is reported as models.ErrInvalidOrExpiredSession.
func (m *SessionManager) VerifySessionCredential(token string) (*models.SessionClaims, error) {
	if token == "" || len(m.secret) == 0 {
		return nil, models.ErrInvalidOrExpiredSession
	}

	claims := &models.SessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(t *jwt.Token) (interface{}, error) {
			return m.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuer(sessionIssuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid {
		return nil, models.ErrInvalidOrExpiredSession
	}

	if claims.UserID == "" || claims.ID == "" || !claims.Role.IsValid() {
		return nil, models.ErrInvalidOrExpiredSession
	}

	return claims, nil
}
