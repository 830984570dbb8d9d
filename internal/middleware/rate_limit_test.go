package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/models"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serve(h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestRateLimitByIP_Returns429AfterLimit(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 3})(okHandler())

	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		require.Equal(t, http.StatusOK, serve(handler, req).Code, "request %d", i+1)
	}

	req := httptest.NewRequest(http.MethodPost, "/login", nil)
	req.RemoteAddr = "192.0.2.1:1000"
	w := serve(handler, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.JSONEq(t, `{"error":"Rate limit exceeded"}`, w.Body.String())

	// Another client has its own bucket
	other := httptest.NewRequest(http.MethodPost, "/login", nil)
	other.RemoteAddr = "192.0.2.2:1000"
	assert.Equal(t, http.StatusOK, serve(handler, other).Code)
}

func TestRateLimitByIP_IgnoresSpoofedForwardedFor(t *testing.T) {
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	first := httptest.NewRequest(http.MethodPost, "/login", nil)
	first.RemoteAddr = "192.0.2.1:1000"
	first.Header.Set("X-Forwarded-For", "203.0.113.1")
	require.Equal(t, http.StatusOK, serve(handler, first).Code)

	// Rotating the header from an untrusted peer does not reset the bucket
	second := httptest.NewRequest(http.MethodPost, "/login", nil)
	second.RemoteAddr = "192.0.2.1:1000"
	second.Header.Set("X-Forwarded-For", "203.0.113.2")
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, second).Code)
}

func TestRateLimitByIP_TrustedProxy(t *testing.T) {
	ipConfig, err := pkghttp.NewIPConfig([]string{"10.0.0.0/8"})
	require.NoError(t, err)
	handler := RateLimitByIP(RateLimitConfig{RequestsPerMinute: 1, IPConfig: ipConfig})(okHandler())

	for _, client := range []string{"203.0.113.1", "203.0.113.2"} {
		req := httptest.NewRequest(http.MethodPost, "/login", nil)
		req.RemoteAddr = "10.0.0.5:443"
		req.Header.Set("X-Forwarded-For", client)
		assert.Equal(t, http.StatusOK, serve(handler, req).Code, client)
	}
}

func TestRateLimitBySession_IsolatesUsers(t *testing.T) {
	handler := RateLimitBySession(RateLimitConfig{RequestsPerMinute: 1})(okHandler())

	request := func(userID string) *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/interpreters/x/credentials", nil)
		req.RemoteAddr = "192.0.2.1:1000"
		claims := &models.SessionClaims{UserID: userID}
		return req.WithContext(auth.WithSession(req.Context(), claims, &models.User{ID: userID}))
	}

	assert.Equal(t, http.StatusOK, serve(handler, request("admin-1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(handler, request("admin-1")).Code)
	assert.Equal(t, http.StatusOK, serve(handler, request("admin-2")).Code)
}
