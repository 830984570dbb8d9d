package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/interplink/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256-signing"

func interpreterPayload() models.SessionPayload {
	return models.SessionPayload{
		UserID:    "user-1",
		Email:     "ana@example.com",
		Role:      models.RoleInterpreter,
		ProfileID: "profile-1",
	}
}

func newTestSessionManager(now time.Time) *SessionManager {
	m := NewSessionManager(testSecret, 0)
	m.now = func() time.Time { return now }
	return m
}

func TestSessionCredential_RoundTrip(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestSessionManager(now)

	token, err := m.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)

	claims, err := m.VerifySessionCredential(token)
	require.NoError(t, err)

	assert.Equal(t, interpreterPayload(), claims.Payload())
	assert.NotEmpty(t, claims.ID)
	assert.Equal(t, now.Add(DefaultSessionTTL).Unix(), claims.ExpiresAt.Unix())
}

func TestSessionCredential_UniqueIDs(t *testing.T) {
	m := newTestSessionManager(time.Now())

	a, err := m.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)
	b, err := m.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)

	ca, err := m.VerifySessionCredential(a)
	require.NoError(t, err)
	cb, err := m.VerifySessionCredential(b)
	require.NoError(t, err)
	assert.NotEqual(t, ca.ID, cb.ID)
}

func TestVerifySessionCredential_Expired(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestSessionManager(issued)

	token, err := m.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(7*24*time.Hour + time.Second) }
	_, err = m.VerifySessionCredential(token)
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredSession)
	assert.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestVerifySessionCredential_CustomTTL(t *testing.T) {
	issued := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	m := newTestSessionManager(issued)

	token, err := m.CreateSessionCredentialWithTTL(interpreterPayload(), time.Hour)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = m.VerifySessionCredential(token)
	require.NoError(t, err)

	m.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = m.VerifySessionCredential(token)
	assert.ErrorIs(t, err, models.ErrInvalidOrExpiredSession)
}

func TestVerifySessionCredential_Rejections(t *testing.T) {
	m := newTestSessionManager(time.Now())
	valid, err := m.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)

	other := NewSessionManager("a-completely-different-secret-value-for-testing", 0)
	foreign, err := other.CreateSessionCredential(interpreterPayload())
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, &models.SessionClaims{
		UserID: "user-1",
		Role:   models.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "x",
			Issuer:    sessionIssuer,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	noExpiry, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &models.SessionClaims{
		UserID:           "user-1",
		Role:             models.RoleInterpreter,
		RegisteredClaims: jwt.RegisteredClaims{ID: "x", Issuer: sessionIssuer},
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	badRole, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "user-1",
		"role":    "ROOT",
		"jti":     "x",
		"iss":     sessionIssuer,
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)

	tests := map[string]string{
		"empty":          "",
		"garbage":        "not.a.jwt",
		"tampered":       tamper(valid),
		"foreign secret": foreign,
		"alg none":       noneAlg,
		"missing expiry": noExpiry,
		"unknown role":   badRole,
	}

	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			claims, err := m.VerifySessionCredential(token)
			assert.Nil(t, claims)
			assert.ErrorIs(t, err, models.ErrInvalidOrExpiredSession)
		})
	}
}

// tamper flips the first character of the signature segment
func tamper(token string) string {
	i := strings.LastIndex(token, ".") + 1
	c := byte('A')
	if token[i] == 'A' {
		c = 'B'
	}
	return token[:i] + string(c) + token[i+1:]
}

func TestCreateSessionCredential_InvalidPayload(t *testing.T) {
	m := newTestSessionManager(time.Now())

	_, err := m.CreateSessionCredential(models.SessionPayload{Role: models.RoleInterpreter})
	assert.Error(t, err)

	_, err = m.CreateSessionCredential(models.SessionPayload{UserID: "u"})
	assert.Error(t, err)

	_, err = m.CreateSessionCredentialWithTTL(interpreterPayload(), -time.Minute)
	assert.Error(t, err)

	empty := NewSessionManager("", time.Hour)
	_, err = empty.CreateSessionCredential(interpreterPayload())
	assert.Error(t, err)
}

func TestNewSessionManager_DefaultTTL(t *testing.T) {
	assert.Equal(t, DefaultSessionTTL, NewSessionManager(testSecret, 0).TTL())
	assert.Equal(t, time.Hour, NewSessionManager(testSecret, time.Hour).TTL())
}
