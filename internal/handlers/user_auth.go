package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/BradenHooton/interplink/internal/auth"
	"github.com/BradenHooton/interplink/internal/models"
	"github.com/BradenHooton/interplink/internal/services"
	pkghttp "github.com/BradenHooton/interplink/pkg/http"
)

// UserAuthServiceInterface defines password sign-in for non-interpreter roles
type UserAuthServiceInterface interface {
	SignIn(ctx context.Context, in services.UserSignInInput) (*services.UserSignInResult, error)
}

// UserAuthHandler handles sign-in for admins, super admins and clients
type UserAuthHandler struct {
	service  UserAuthServiceInterface
	ipConfig *pkghttp.IPConfig
	cookies  auth.CookieConfig
	delay    *auth.FailureDelay
}

// NewUserAuthHandler creates a new UserAuthHandler
func NewUserAuthHandler(service UserAuthServiceInterface, ipConfig *pkghttp.IPConfig, cookies auth.CookieConfig, delay *auth.FailureDelay) *UserAuthHandler {
	return &UserAuthHandler{
		service:  service,
		ipConfig: ipConfig,
		cookies:  cookies,
		delay:    delay,
	}
}

// UserLoginRequest is the password sign-in body
type UserLoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// UserLoginResponse is returned on a successful sign-in
type UserLoginResponse struct {
	Success bool         `json:"success"`
	User    UserResponse `json:"user"`
	Token   string       `json:"token"`
}

// Login handles password sign-in
// @Summary Sign in with e-mail and password (admins and clients)
// @Accept json
// @Param request body UserLoginRequest true "Sign-in request"
// @Produce json
// @Success 200 {object} UserLoginResponse
// @Failure 400 {object} pkghttp.ErrorResponse
// @Failure 401 {object} pkghttp.ErrorResponse
// @Router /api/auth/login [post]
func (h *UserAuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req UserLoginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBody)).Decode(&req); err != nil {
		pkghttp.WriteBadRequest(w, "Invalid request body")
		return
	}

	if err := ValidateRequest(req); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	result, err := h.service.SignIn(r.Context(), services.UserSignInInput{
		Email:     req.Email,
		Password:  req.Password,
		IPAddress: pkghttp.ExtractClientIP(r, h.ipConfig),
		UserAgent: pkghttp.UserAgent(r),
	})
	if err != nil {
		if errors.Is(err, models.ErrUnauthorized) {
			h.delay.PadSince(r.Context(), start)
			pkghttp.WriteAuthFailed(w)
			return
		}
		pkghttp.WriteInternalError(w)
		return
	}

	auth.SetSessionCookie(w, result.SessionToken, result.SessionTTL, h.cookies)
	pkghttp.WriteJSON(w, http.StatusOK, UserLoginResponse{
		Success: true,
		User:    toUserResponse(result.User),
		Token:   result.SessionToken,
	})
}
