package routes

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
	"github.com/BradenHooton/interplink/internal/middleware"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routeTestSecret = "route-test-secret-with-at-least-32-bytes"

type stubUsers map[string]*models.User

func (s stubUsers) GetByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, models.ErrNotFound
}

type stubHealth struct{ err error }

func (s stubHealth) HealthCheck(ctx context.Context) error { return s.err }

func newRouter(t *testing.T, health HealthChecker) (http.Handler, *auth.SessionManager) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	sessions := auth.NewSessionManager(routeTestSecret, time.Hour)
	users := stubUsers{
		"user-1":  {ID: "user-1", Name: "Ana", Role: models.RoleInterpreter},
		"admin-1": {ID: "admin-1", Name: "Ops", Role: models.RoleAdmin},
	}

	router := chi.NewRouter()
	RegisterRoutes(router, Dependencies{
		InterpreterAuth: handlers.NewInterpreterAuthHandler(&handlers.MockInterpreterAuthService{}, nil, auth.CookieConfig{}, nil, "/login", logger),
		UserAuth:        handlers.NewUserAuthHandler(&handlers.MockUserAuthService{}, nil, auth.CookieConfig{}, nil),
		Admin:           handlers.NewAdminInterpreterHandler(&handlers.MockCredentialService{}),
		Dashboard:       handlers.NewDashboardHandler(logger),
		Gate:            auth.NewGate(sessions, users, nil, "/login", logger),
		Health:          health,
		SignInLimit:     middleware.RateLimitConfig{RequestsPerMinute: 100},
		AdminLimit:      middleware.RateLimitConfig{RequestsPerMinute: 100},
	})
	return router, sessions
}

func bearer(t *testing.T, sessions *auth.SessionManager, userID string, role models.Role) string {
	t.Helper()
	token, err := sessions.CreateSessionCredential(models.SessionPayload{UserID: userID, Role: role})
	require.NoError(t, err)
	return "Bearer " + token
}

func TestRoutes_Guards(t *testing.T) {
	router, sessions := newRouter(t, stubHealth{})
	interpreter := bearer(t, sessions, "user-1", models.RoleInterpreter)
	admin := bearer(t, sessions, "admin-1", models.RoleAdmin)

	tests := []struct {
		name       string
		method     string
		path       string
		authz      string
		wantStatus int
	}{
		{"me anonymous", http.MethodGet, "/api/interpreter/me", "", http.StatusUnauthorized},
		{"me as admin", http.MethodGet, "/api/interpreter/me", admin, http.StatusForbidden},
		{"me as interpreter", http.MethodGet, "/api/interpreter/me", interpreter, http.StatusNotFound},
		{"list anonymous", http.MethodGet, "/api/admin/interpreters", "", http.StatusUnauthorized},
		{"list as interpreter", http.MethodGet, "/api/admin/interpreters", interpreter, http.StatusForbidden},
		{"list as admin", http.MethodGet, "/api/admin/interpreters", admin, http.StatusOK},
		{"reissue as interpreter", http.MethodPost, "/api/admin/interpreters/x/credentials", interpreter, http.StatusForbidden},
		{"logout anonymous", http.MethodPost, "/api/auth/logout", "", http.StatusUnauthorized},
		{"logout as admin", http.MethodPost, "/api/auth/logout", admin, http.StatusNoContent},
		{"login is public", http.MethodPost, "/api/auth/interpreter/login", "", http.StatusBadRequest},
		{"user login is public", http.MethodPost, "/api/auth/login", "", http.StatusBadRequest},
		{"dashboard as interpreter", http.MethodGet, "/interpreter/dashboard", interpreter, http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.authz != "" {
				req.Header.Set("Authorization", tt.authz)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.wantStatus, w.Code)
		})
	}
}

func TestRoutes_SignInEndpoints(t *testing.T) {
	router, _ := newRouter(t, stubHealth{})

	var public []string
	require.NoError(t, chi.Walk(router.(chi.Routes), func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		if method == http.MethodPost && strings.HasSuffix(route, "login") {
			public = append(public, route)
		}
		return nil
	}))
	assert.ElementsMatch(t, []string{"/api/auth/interpreter/login", "/api/auth/login"}, public)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(`{"email":"ops@example.com","password":"wrong"}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRoutes_DashboardRedirectsToLogin(t *testing.T) {
	router, sessions := newRouter(t, stubHealth{})

	for name, authz := range map[string]string{
		"anonymous":  "",
		"wrong role": bearer(t, sessions, "admin-1", models.RoleAdmin),
	} {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/interpreter/dashboard", nil)
			if authz != "" {
				req.Header.Set("Authorization", authz)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, "/login?next=%2Finterpreter%2Fdashboard", w.Header().Get("Location"))
		})
	}
}

func TestRoutes_Health(t *testing.T) {
	router, _ := newRouter(t, stubHealth{})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","database":"up"}`, w.Body.String())

	router, _ = newRouter(t, stubHealth{err: errors.New("down")})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
