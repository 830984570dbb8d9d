package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/services"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
)

// maxRequestBody caps JSON request bodies
const maxRequestBody = 1 << 20

// InterpreterAuthServiceInterface defines the interpreter sign-in business logic
type InterpreterAuthServiceInterface interface {
	SignIn(ctx context.Context, in services.SignInInput) (*services.SignInResult, error)
	SignOut(ctx context.Context, claims *models.SessionClaims) error
	CurrentInterpreter(ctx context.Context, userID string) (*models.InterpreterAccount, error)
}

// InterpreterAuthHandler handles interpreter sign-in, sign-out and the
// current-interpreter endpoint
type InterpreterAuthHandler struct {
	service   InterpreterAuthServiceInterface
	ipConfig  *pkghttp.IPConfig
	cookies   auth.CookieConfig
	delay     *auth.FailureDelay
	loginPath string
	logger    *slog.Logger
}

// NewInterpreterAuthHandler creates a new InterpreterAuthHandler.
// delay may be nil to answer failures immediately. loginPath is where HTML
// form sign-outs are sent afterwards.
func NewInterpreterAuthHandler(service InterpreterAuthServiceInterface, ipConfig *pkghttp.IPConfig, cookies auth.CookieConfig, delay *auth.FailureDelay, loginPath string, logger *slog.Logger) *InterpreterAuthHandler {
	return &InterpreterAuthHandler{
		service:   service,
		ipConfig:  ipConfig,
		cookies:   cookies,
		delay:     delay,
		loginPath: loginPath,
		logger:    logger,
	}
}

// Request DTOs

// InterpreterLoginRequest is the sign-in body. Either password or token is required.
type InterpreterLoginRequest struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password,omitempty" validate:"required_without=Token,max=128"`
	Token       string `json:"token,omitempty" validate:"max=256"`
	NewPassword string `json:"newPassword,omitempty" validate:"max=128"`
}

// Response DTOs

// UserResponse is the public view of a user
type UserResponse struct {
	ID    string      `json:"id"`
	Email string      `json:"email"`
	Name  string      `json:"name"`
	Role  models.Role `json:"role"`
}

// InterpreterResponse is the public view of an interpreter profile
type InterpreterResponse struct {
	ID              string                   `json:"id"`
	FirstName       string                   `json:"firstName"`
	LastName        string                   `json:"lastName"`
	Status          models.InterpreterStatus `json:"status"`
	IsVerified      bool                     `json:"isVerified"`
	Languages       []string                 `json:"languages,omitempty"`
	Specializations []string                 `json:"specializations,omitempty"`
}

// InterpreterLoginResponse is returned on a successful sign-in
type InterpreterLoginResponse struct {
	Success               bool                `json:"success"`
	User                  UserResponse        `json:"user"`
	Interpreter           InterpreterResponse `json:"interpreter"`
	Token                 string              `json:"token"`
	RequirePasswordChange bool                `json:"requirePasswordChange"`
}

// CurrentInterpreterResponse is the signed-in interpreter's own view
type CurrentInterpreterResponse struct {
	User        UserResponse             `json:"user"`
	Interpreter InterpreterResponse      `json:"interpreter"`
	Credential  *models.CredentialStatus `json:"credential,omitempty"`
}

func toUserResponse(u *models.User) UserResponse {
	return UserResponse{ID: u.ID, Email: u.Email, Name: u.Name, Role: u.Role}
}

func toInterpreterResponse(p *models.InterpreterProfile) InterpreterResponse {
	return InterpreterResponse{
		ID:              p.ID,
		FirstName:       p.FirstName,
		LastName:        p.LastName,
		Status:          p.Status,
		IsVerified:      p.IsVerified,
		Languages:       p.Languages,
		Specializations: p.Specializations,
	}
}

// Login handles interpreter sign-in
// @Summary Interpreter sign-in by password or one-time login token
// @Accept json
// @Param request body InterpreterLoginRequest true "Sign-in request"
// @Produce json
// @Success 200 {object} InterpreterLoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/interpreter/login [post]
func (h *InterpreterAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req InterpreterLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SignIn(r.Context(), services.SignInInput{
		Email:       req.Email,
		Password:    req.Password,
		Token:       req.Token,
		NewPassword: req.NewPassword,
		IPAddress:   pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent:   pkghttp.UserAgent(r),
	})
	if err != nil {
		switch {
		case errors.Is(err, models.ErrUnauthorized):
			// Every auth failure looks the same, in body and in latency
			h.delay.PadSince(r.Context(), start)
			pkghttp.WriteAuthFailed(w)
		case errors.Is(err, models.ErrWeakPassword):
			pkghttp.WriteBadRequest(w, "New password does not meet requirements")
		default:
			pkghttp.WriteInternalError(w)
		}
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, result.SessionTTL, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, InterpreterLoginResponse{
		Success:               true,
		User:                  toUserResponse(result.User),
		Interpreter:           toInterpreterResponse(result.Profile),
		Token:                 result.SessionToken,
		RequirePasswordChange: result.RequirePasswordChange,
	})
}

// Logout revokes the current session and clears the cookie. Page form posts
// are redirected to the login page; API callers get 204.
// @Summary Sign out
// @Success 204
// @Success 303
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 500 {object} pkghttp.ErrorResponse
// @Router /api/auth/logout [post]
func (h *InterpreterAuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteAuthFailed(w)
		return
	}

	if err := h.service.SignOut(r.Context(), claims); err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			pkghttp.WriteAuthFailed(w)
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	auth.ClearSessionCookie(w, h.cookies)
	if isFormPost(r) && h.loginPath != "" {
		http.Redirect(w, r, h.loginPath, http.StatusSeeOther)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// isFormPost reports whether the request was submitted by an HTML form
func isFormPost(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil {
		return false
	}
	return mediaType == "application/x-www-form-urlencoded" || mediaType == "multipart/form-data"
}

// Me returns the signed-in interpreter's profile and credential status
// @Summary Current interpreter
// @Produce json
// @Success 200 {object} CurrentInterpreterResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Failure 404 {object} pkghttp.ErrorResponse
// @Router /api/interpreter/me [get]
func (h *InterpreterAuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := auth.SessionFromContext(r.Context())
	if claims == nil {
		pkghttp.WriteAuthFailed(w)
		return
	}

	account, err := h.service.CurrentInterpreter(r.Context(), claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrNotFound) {
			pkghttp.WriteNotFound(w, "Interpreter profile not found")
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	resp := CurrentInterpreterResponse{
		User:        toUserResponse(account.User),
		Interpreter: toInterpreterResponse(account.Profile),
	}
	if account.Credential != nil {
		status := account.Credential.Status()
		resp.Credential = &status
	}
	pkghttp.WriteJSON(w, http.StatusOK, resp)
}
