package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/services"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 200
)

// CredentialServiceInterface defines the admin credential operations
type CredentialServiceInterface interface {
	ReissueCredentials(ctx context.Context, profileID, actorID string) (*services.ReissueResult, error)
	ListInterpreters(ctx context.Context, limit, offset int) (*services.InterpreterPage, error)
}

// AdminInterpreterHandler serves the admin interpreter endpoints
type AdminInterpreterHandler struct {
	service CredentialServiceInterface
}

// NewAdminInterpreterHandler creates a new AdminInterpreterHandler
func NewAdminInterpreterHandler(service CredentialServiceInterface) *AdminInterpreterHandler {
	return &AdminInterpreterHandler{service: service}
}

// InterpreterListItem is one row of the admin listing
type InterpreterListItem struct {
	User        UserResponse             `json:"user"`
	Interpreter InterpreterResponse      `json:"interpreter"`
	Credential  *models.CredentialStatus `json:"credential"`
}

// InterpreterListResponse is a page of interpreters
type InterpreterListResponse struct {
	Items  []InterpreterListItem `json:"items"`
	Total  int                   `json:"total"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

// ListInterpreters returns a page of interpreters with credential presence only
// @Summary List interpreters
// @Param limit query int false "Page size (1-200, default 50)"
// @Param offset query int false "Offset (default 0)"
// @Produce json
// @Success 200 {object} InterpreterListResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Router /api/admin/interpreters [get]
func (h *AdminInterpreterHandler) ListInterpreters(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultPageLimit)
	if err != nil || limit < 1 || limit > maxPageLimit {
		pkghttp.WriteBadRequest(w, "limit must be between 1 and 200")
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		pkghttp.WriteBadRequest(w, "offset must be zero or greater")
		return
	}

	page, err := h.service.ListInterpreters(r.Context(), limit, offset)
	if err != nil {
		pkghttp.WriteInternalError(w)
		return
	}

	resp := InterpreterListResponse{
		Items:  make([]InterpreterListItem, 0, len(page.Items)),
		Total:  page.Total,
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	for _, account := range page.Items {
		item := InterpreterListItem{
			User:        toUserResponse(account.User),
			Interpreter: toInterpreterResponse(account.Profile),
		}
		if account.Credential != nil {
			status := account.Credential.Status()
			item.Credential = &status
		}
		resp.Items = append(resp.Items, item)
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// ReissueCredentials issues a fresh temporary password and login token and
// e-mails them to the interpreter
// @Summary Reissue first-login credentials
// @Param id path string true "Interpreter profile ID"
// @Produce json
// @Success 200 {object} services.ReissueResult
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Failure 503 {object} pkghttp.ErrorResponse
// @Router /api/admin/interpreters/{id}/credentials [post]
func (h *AdminInterpreterHandler) ReissueCredentials(w http.ResponseWriter, r *http.Request) {
	profileID := chi.URLParam(r, "id")
	if _, err := uuid.Parse(profileID); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid interpreter ID")
		return
	}

	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteAuthFailed(w)
		return
	}

	result, err := h.service.ReissueCredentials(r.Context(), profileID, claims.UserID)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrNotFound):
			pkghttp.WriteNotFound(w, "Interpreter not found")
		case errors.Is(err, services.ErrMailerDisabled):
			pkghttp.WriteServiceUnavailable(w, "Credential email delivery is not configured")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, result)
}

func queryInt(r *http.Request, key string, fallback int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}
