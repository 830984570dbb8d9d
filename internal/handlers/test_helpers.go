package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/services"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
)

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body any) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithSessionContext attaches the claims and user the session gate would
func WithSessionContext(req *http.Request, user *models.User) *http.Request {
	claims := &models.SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-" + user.ID,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	return req.WithContext(auth.WithSession(req.Context(), claims, user))
}

// WithURLParam sets a chi route parameter on the request
func WithURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target any) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"), "Content-Type should be application/json")

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a JSON error with the given message
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) {
	t.Helper()
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error message mismatch")
}

// MockInterpreterAuthService implements InterpreterAuthServiceInterface for testing
type MockInterpreterAuthService struct {
	SignInFunc             func(ctx context.Context, in services.SignInInput) (*services.SignInResult, error)
	SignOutFunc            func(ctx context.Context, claims *models.SessionClaims) error
	CurrentInterpreterFunc func(ctx context.Context, userID string) (*models.InterpreterAccount, error)
}

func (m *MockInterpreterAuthService) SignIn(ctx context.Context, in services.SignInInput) (*services.SignInResult, error) {
	if m.SignInFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.SignInFunc(ctx, in)
}

func (m *MockInterpreterAuthService) SignOut(ctx context.Context, claims *models.SessionClaims) error {
	if m.SignOutFunc == nil {
		return nil
	}
	return m.SignOutFunc(ctx, claims)
}

func (m *MockInterpreterAuthService) CurrentInterpreter(ctx context.Context, userID string) (*models.InterpreterAccount, error) {
	if m.CurrentInterpreterFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.CurrentInterpreterFunc(ctx, userID)
}

// MockCredentialService implements CredentialServiceInterface for testing
type MockCredentialService struct {
	ReissueCredentialsFunc func(ctx context.Context, profileID, actorID string) (*services.ReissueResult, error)
	ListInterpretersFunc   func(ctx context.Context, limit, offset int) (*services.InterpreterPage, error)
}

func (m *MockCredentialService) ReissueCredentials(ctx context.Context, profileID, actorID string) (*services.ReissueResult, error) {
	if m.ReissueCredentialsFunc == nil {
		return nil, models.ErrNotFound
	}
	return m.ReissueCredentialsFunc(ctx, profileID, actorID)
}

func (m *MockCredentialService) ListInterpreters(ctx context.Context, limit, offset int) (*services.InterpreterPage, error) {
	if m.ListInterpretersFunc == nil {
		return &services.InterpreterPage{Limit: limit, Offset: offset}, nil
	}
	return m.ListInterpretersFunc(ctx, limit, offset)
}

// MockUserAuthService implements UserAuthServiceInterface for testing
type MockUserAuthService struct {
	SignInFunc func(ctx context.Context, in services.UserSignInInput) (*services.UserSignInResult, error)
}

func (m *MockUserAuthService) SignIn(ctx context.Context, in services.UserSignInInput) (*services.UserSignInResult, error) {
	if m.SignInFunc == nil {
		return nil, models.ErrInvalidCredentials
	}
	return m.SignInFunc(ctx, in)
}
