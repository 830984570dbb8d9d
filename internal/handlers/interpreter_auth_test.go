package handlers_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/handlers"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func signInResult(requireChange bool) *services.SignInResult {
	return &services.SignInResult{
		User: &models.User{ID: "user-1", Email: "ana@example.com", Name: "Ana Souza", Role: models.RoleInterpreter, PasswordHash: "$2a$12$secret"},
		Profile: &models.InterpreterProfile{
			ID: "profile-1", UserID: "user-1", FirstName: "Ana", LastName: "Souza",
			Status: models.InterpreterStatusActive, IsVerified: true,
		},
		SessionToken:          "signed.session.token",
		SessionTTL:            7 * 24 * time.Hour,
		RequirePasswordChange: requireChange,
	}
}

func newAuthHandler(svc *handlers.MockInterpreterAuthService, delay *auth.FailureDelay) *handlers.InterpreterAuthHandler {
	return handlers.NewInterpreterAuthHandler(svc, nil, auth.CookieConfig{Secure: true}, delay, "/login", quietLogger())
}

func TestInterpreterLogin_Success(t *testing.T) {
	var got services.SignInInput
	svc := &handlers.MockInterpreterAuthService{
		SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
			got = in
			return signInResult(true), nil
		},
	}

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
		"email": "ana@example.com",
		"token": "abc123",
	})
	req.RemoteAddr = "192.0.2.10:5123"
	req.Header.Set("User-Agent", "test-agent")
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Login(w, req)

	var resp handlers.InterpreterLoginResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	assert.True(t, resp.Success)
	assert.Equal(t, "signed.session.token", resp.Token)
	assert.True(t, resp.RequirePasswordChange)
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, models.RoleInterpreter, resp.User.Role)
	assert.Equal(t, "Ana", resp.Interpreter.FirstName)
	assert.True(t, resp.Interpreter.IsVerified)
	assert.NotContains(t, w.Body.String(), "$2a$12$")

	assert.Equal(t, "abc123", got.Token)
	assert.Equal(t, "192.0.2.10", got.IPAddress)
	assert.Equal(t, "test-agent", got.UserAgent)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	c := cookies[0]
	assert.Equal(t, auth.SessionCookieName, c.Name)
	assert.Equal(t, "signed.session.token", c.Value)
	assert.True(t, c.HttpOnly)
	assert.True(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)
	assert.Equal(t, 7*24*60*60, c.MaxAge)
}

func TestInterpreterLogin_ResponseFieldNames(t *testing.T) {
	svc := &handlers.MockInterpreterAuthService{
		SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
			return signInResult(false), nil
		},
	}

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
		"email": "ana@example.com", "password": "Perm#Pass12",
	})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Login(w, req)

	body := w.Body.String()
	for _, field := range []string{`"success":true`, `"requirePasswordChange":false`, `"firstName":"Ana"`, `"isVerified":true`, `"role":"INTERPRETER"`} {
		assert.Contains(t, body, field)
	}
}

func TestInterpreterLogin_AuthFailuresAreGeneric(t *testing.T) {
	for _, failure := range []error{
		models.ErrAccountNotFound,
		models.ErrCredentialsMissing,
		models.ErrInvalidToken,
		models.ErrInvalidCredentials,
	} {
		t.Run(failure.Error(), func(t *testing.T) {
			svc := &handlers.MockInterpreterAuthService{
				SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
					return nil, failure
				},
			}

			req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
				"email": "ana@example.com", "password": "nope",
			})
			w := httptest.NewRecorder()
			newAuthHandler(svc, nil).Login(w, req)

			handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "Authentication failed")
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestInterpreterLogin_FailureIsPadded(t *testing.T) {
	svc := &handlers.MockInterpreterAuthService{}
	floor := 60 * time.Millisecond

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
		"email": "ana@example.com", "password": "nope",
	})
	w := httptest.NewRecorder()
	start := time.Now()
	newAuthHandler(svc, auth.NewFailureDelay(floor, 0)).Login(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.GreaterOrEqual(t, time.Since(start), floor)
}

func TestInterpreterLogin_WeakNewPassword(t *testing.T) {
	svc := &handlers.MockInterpreterAuthService{
		SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
			return nil, models.ErrWeakPassword
		},
	}

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
		"email": "ana@example.com", "token": "abc123", "newPassword": "short",
	})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusBadRequest, "New password does not meet requirements")
}

func TestInterpreterLogin_InternalError(t *testing.T) {
	svc := &handlers.MockInterpreterAuthService{
		SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
			return nil, models.ErrInternalServer
		},
	}

	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/interpreter/login", map[string]string{
		"email": "ana@example.com", "password": "Perm#Pass12",
	})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Login(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "Internal server error")
	assert.Empty(t, w.Result().Cookies())
}

func TestInterpreterLogin_BadRequests(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"malformed json", `{"email":`, "Invalid request body"},
		{"missing email", `{"password":"x"}`, "validation failed: email: this field is required"},
		{"invalid email", `{"email":"not-an-email","password":"x"}`, "validation failed: email: must be a valid email address"},
		{"no password or token", `{"email":"ana@example.com"}`, "validation failed: password: this field is required when token is not provided"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			called := false
			svc := &handlers.MockInterpreterAuthService{
				SignInFunc: func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
					called = true
					return nil, errors.New("unexpected")
				},
			}

			req := httptest.NewRequest(http.MethodPost, "/api/auth/interpreter/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			newAuthHandler(svc, nil).Login(w, req)

			handlers.AssertErrorResponse(t, w, http.StatusBadRequest, tt.wantMsg)
			assert.False(t, called)
		})
	}
}

func TestLogout(t *testing.T) {
	var revoked *models.SessionClaims
	svc := &handlers.MockInterpreterAuthService{
		SignOutFunc: func(ctx context.Context, claims *models.SessionClaims) error {
			revoked = claims
			return nil
		},
	}

	user := &models.User{ID: "user-1", Role: models.RoleInterpreter}
	req := handlers.WithSessionContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), user)
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	require.NotNil(t, revoked)
	assert.Equal(t, "jti-user-1", revoked.ID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, auth.SessionCookieName, cookies[0].Name)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogout_FormPostRedirectsToLogin(t *testing.T) {
	revoked := false
	svc := &handlers.MockInterpreterAuthService{
		SignOutFunc: func(ctx context.Context, claims *models.SessionClaims) error {
			revoked = true
			return nil
		},
	}

	req := httptest.NewRequest(http.MethodPost, "/api/auth/logout", strings.NewReader(""))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req = handlers.WithSessionContext(req, &models.User{ID: "user-1", Role: models.RoleInterpreter})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Logout(w, req)

	assert.True(t, revoked)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestLogout_JSONClientGetsNoContent(t *testing.T) {
	req := handlers.NewTestRequest(t, http.MethodPost, "/api/auth/logout", nil)
	req = handlers.WithSessionContext(req, &models.User{ID: "user-1", Role: models.RoleInterpreter})
	w := httptest.NewRecorder()
	newAuthHandler(&handlers.MockInterpreterAuthService{}, nil).Logout(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestLogout_RevocationFails(t *testing.T) {
	svc := &handlers.MockInterpreterAuthService{
		SignOutFunc: func(ctx context.Context, claims *models.SessionClaims) error {
			return models.ErrInternalServer
		},
	}

	req := handlers.WithSessionContext(httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil), &models.User{ID: "user-1"})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Logout(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusInternalServerError, "Internal server error")
	assert.Empty(t, w.Result().Cookies())
}

func TestLogout_WithoutSession(t *testing.T) {
	w := httptest.NewRecorder()
	newAuthHandler(&handlers.MockInterpreterAuthService{}, nil).Logout(w, httptest.NewRequest(http.MethodPost, "/api/auth/logout", nil))

	handlers.AssertErrorResponse(t, w, http.StatusUnauthorized, "Authentication failed")
}

func TestMe(t *testing.T) {
	expiry := time.Date(2026, 5, 11, 9, 30, 0, 0, time.UTC)
	temp, token := "hash", "abc123"
	svc := &handlers.MockInterpreterAuthService{
		CurrentInterpreterFunc: func(ctx context.Context, userID string) (*models.InterpreterAccount, error) {
			res := signInResult(true)
			return &models.InterpreterAccount{
				User:    res.User,
				Profile: res.Profile,
				Credential: &models.Credential{
					TempPasswordHash: &temp, LoginToken: &token, TokenExpiry: &expiry, FirstLogin: true,
				},
			}, nil
		},
	}

	req := handlers.WithSessionContext(httptest.NewRequest(http.MethodGet, "/api/interpreter/me", nil), &models.User{ID: "user-1"})
	w := httptest.NewRecorder()
	newAuthHandler(svc, nil).Me(w, req)

	var resp handlers.CurrentInterpreterResponse
	handlers.AssertJSONResponse(t, w, http.StatusOK, &resp)
	require.NotNil(t, resp.Credential)
	assert.True(t, resp.Credential.FirstLogin)
	assert.True(t, resp.Credential.HasLoginToken)
	assert.NotContains(t, w.Body.String(), "abc123")
	assert.NotContains(t, w.Body.String(), `"hash"`)
}

func TestMe_NoProfile(t *testing.T) {
	req := handlers.WithSessionContext(httptest.NewRequest(http.MethodGet, "/api/interpreter/me", nil), &models.User{ID: "user-1"})
	w := httptest.NewRecorder()
	newAuthHandler(&handlers.MockInterpreterAuthService{}, nil).Me(w, req)

	handlers.AssertErrorResponse(t, w, http.StatusNotFound, "Interpreter profile not found")
}
