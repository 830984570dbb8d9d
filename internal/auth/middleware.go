package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/BradenHooton/interplink/internal/models"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
)

// contextKey is a custom type for context keys
type contextKey string

const (
	sessionContextKey contextKey = "session"
	userContextKey    contextKey = "user"
)

// SessionVerifier validates a raw session credential
type SessionVerifier interface {
	VerifySessionCredential(token string) (*models.SessionClaims, error)
}

// UserFetcher loads the account behind a session
type UserFetcher interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
}

// RevocationChecker reports whether a session was signed out
type RevocationChecker interface {
	IsSessionRevoked(ctx context.Context, jti string) (bool, error)
}

// rejection is why the gate refused a request
type rejection int

const (
	rejectUnauthenticated rejection = iota
	rejectForbidden
	rejectUnavailable
)

// Gate guards routes by session credential and role. API routes get JSON
// errors; page routes are redirected to the login page on any rejection.
type Gate struct {
	sessions    SessionVerifier
	users       UserFetcher
	revocations RevocationChecker
	loginPath   string
	logger      *slog.Logger
}

// NewGate creates a Gate. revocations may be nil to skip the revocation check.
func NewGate(sessions SessionVerifier, users UserFetcher, revocations RevocationChecker, loginPath string, logger *slog.Logger) *Gate {
	if loginPath == "" {
		loginPath = "/login"
	}
	return &Gate{
		sessions:    sessions,
		users:       users,
		revocations: revocations,
		loginPath:   loginPath,
		logger:      logger,
	}
}

// RequireAPI admits requests whose user holds one of roles.
// 401 for a missing or bad session, 403 for the wrong role, 500 if a store fails.
func (g *Gate) RequireAPI(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := models.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, rej, ok := g.authorize(r, allowed)
			if ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			switch rej {
			case rejectForbidden:
				pkghttp.WriteForbidden(w, "Forbidden")
			case rejectUnavailable:
				pkghttp.WriteInternalError(w)
			default:
				pkghttp.WriteAuthFailed(w)
			}
		})
	}
}

// RequirePage is RequireAPI for HTML routes: every rejection is a 303 to the login page
func (g *Gate) RequirePage(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := models.NewRoleSet(roles...)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, _, ok := g.authorize(r, allowed)
			if ok {
				next.ServeHTTP(w, r.WithContext(ctx))
				return
			}
			target := g.loginPath + "?next=" + url.QueryEscape(r.URL.RequestURI())
			http.Redirect(w, r, target, http.StatusSeeOther)
		})
	}
}

func (g *Gate) authorize(r *http.Request, allowed models.RoleSet) (context.Context, rejection, bool) {
	ctx := r.Context()

	token := SessionTokenFromRequest(r)
	if token == "" {
		return nil, rejectUnauthenticated, false
	}

	claims, err := g.sessions.VerifySessionCredential(token)
	if err != nil {
		return nil, rejectUnauthenticated, false
	}

	if g.revocations != nil {
		revoked, err := g.revocations.IsSessionRevoked(ctx, claims.ID)
		if err != nil {
			// Fail closed: an unverifiable session is not admitted
			g.logger.Error("session revocation check failed", "error", err, "user_id", claims.UserID)
			return nil, rejectUnavailable, false
		}
		if revoked {
			return nil, rejectUnauthenticated, false
		}
	}

	user, err := g.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return nil, rejectUnauthenticated, false
		}
		g.logger.Error("failed to load session user", "error", err, "user_id", claims.UserID)
		return nil, rejectUnavailable, false
	}

	// The stored role is authoritative; a demoted account loses access immediately
	if !allowed.Contains(user.Role) {
		g.logger.Warn("role not permitted",
			"user_id", user.ID,
			"role", user.Role.String(),
			"path", r.URL.Path,
		)
		return nil, rejectForbidden, false
	}

	return WithSession(ctx, claims, user), 0, true
}

// SessionFromContext returns the verified claims of an admitted request
func SessionFromContext(ctx context.Context) *models.SessionClaims {
	claims, _ := ctx.Value(sessionContextKey).(*models.SessionClaims)
	return claims
}

// UserFromContext returns the user loaded for an admitted request
func UserFromContext(ctx context.Context) *models.User {
	user, _ := ctx.Value(userContextKey).(*models.User)
	return user
}

// WithSession attaches claims and user to ctx the way the gate does
func WithSession(ctx context.Context, claims *models.SessionClaims, user *models.User) context.Context {
	ctx = context.WithValue(ctx, sessionContextKey, claims)
	return context.WithValue(ctx, userContextKey, user)
}
