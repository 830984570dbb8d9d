package routes

import (
	"context"
	"net/http"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/handlers"
	"github.com/BradenHooton/interplink/internal/middleware"
	"github.com/BradenHooton/interplink/internal/models"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
	"github.com/go-chi/chi/v5"
)

// HealthChecker reports whether the backing store is reachable
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Dependencies are the handlers and guards the route table is built from
type Dependencies struct {
	InterpreterAuth *handlers.InterpreterAuthHandler
	UserAuth        *handlers.UserAuthHandler
	Admin           *handlers.AdminInterpreterHandler
	Dashboard       *handlers.DashboardHandler
	Gate            *auth.Gate
	Health          HealthChecker
	SignInLimit     middleware.RateLimitConfig
	AdminLimit      middleware.RateLimitConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(router chi.Router, deps Dependencies) {
	router.Get("/health", healthHandler(deps.Health))

	router.Route("/api", func(r chi.Router) {
		// Public, sharing one per-IP budget
		r.Group(func(r chi.Router) {
			r.Use(middleware.RateLimitByIP(deps.SignInLimit))
			r.Post("/auth/interpreter/login", deps.InterpreterAuth.Login)
			r.Post("/auth/login", deps.UserAuth.Login)
		})

		// Any signed-in role
		r.With(deps.Gate.RequireAPI(models.RoleAdmin, models.RoleInterpreter, models.RoleClient, models.RoleSuperAdmin)).
			Post("/auth/logout", deps.InterpreterAuth.Logout)

		r.With(deps.Gate.RequireAPI(models.RoleInterpreter)).
			Get("/interpreter/me", deps.InterpreterAuth.Me)

		r.Group(func(r chi.Router) {
			r.Use(deps.Gate.RequireAPI(models.RoleAdmin, models.RoleSuperAdmin))
			r.Get("/admin/interpreters", deps.Admin.ListInterpreters)
			r.With(middleware.RateLimitBySession(deps.AdminLimit)).
				Post("/admin/interpreters/{id}/credentials", deps.Admin.ReissueCredentials)
		})
	})

	// HTML pages: rejections redirect to the login page
	router.With(deps.Gate.RequirePage(models.RoleInterpreter)).
		Get("/interpreter/dashboard", deps.Dashboard.Interpreter)
}

func healthHandler(db HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := db.HealthCheck(ctx); err != nil {
			pkghttp.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy", "database": "down"})
			return
		}
		pkghttp.WriteJSON(w, http.StatusOK, map[string]string{"status": "healthy", "database": "up"})
	}
}
