package handlers

import (
	"bytes"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/interplink/internal/auth"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
)

var dashboardTemplate = template.Must(template.New("dashboard").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Interpreter dashboard</title>
</head>
<body>
<main id="dashboard" data-user-id="{{.UserID}}">
<h1>Welcome, {{.Name}}</h1>
<form method="post" action="/api/auth/logout"><button type="submit">Sign out</button></form>
</main>
</body>
</html>
`))

// DashboardHandler serves the interpreter page shell. The page is only
// reachable behind the page gate, so a user is always in context.
type DashboardHandler struct {
	logger *slog.Logger
}

// NewDashboardHandler creates a new DashboardHandler
func NewDashboardHandler(logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{logger: logger}
}

// Interpreter renders the interpreter dashboard shell
func (h *DashboardHandler) Interpreter(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		pkghttp.WriteAuthFailed(w)
		return
	}

	var buf bytes.Buffer
	if err := dashboardTemplate.Execute(&buf, struct{ UserID, Name string }{user.ID, user.Name}); err != nil {
		h.logger.Error("failed to render dashboard", slog.Any("error", err))
		pkghttp.WriteInternalError(w)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
