package http

import (
	"log/slog"
	"net/http"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/service"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/middleware"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/validator"
)

// AuthHandler handles HTTP requests for account endpoints.
type AuthHandler struct {
	auth   *service.AuthService
	logger *slog.Logger
}

// NewAuthHandler creates a new auth HTTP handler.
func NewAuthHandler(auth *service.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type authResponse struct {
	User    *domain.User      `json:"user"`
	Token   *domain.AuthToken `json:"token"`
	IsAdmin bool              `json:"is_admin"`
}

type meResponse struct {
	CurrentUser *domain.User `json:"current_user"`
	IsAdmin     bool         `json:"is_admin"`
}

// Signup handles POST /api/v1/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req service.SignupInput
	if err := validator.Decode(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, token, err := h.auth.Signup(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusCreated, authResponse{
		User:    user,
		Token:   token,
		IsAdmin: h.auth.IsAdmin(user.Email),
	})
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req service.LoginInput
	if err := validator.Decode(r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, token, err := h.auth.Login(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, authResponse{
		User:    user,
		Token:   token,
		IsAdmin: h.auth.IsAdmin(user.Email),
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFromContext(r.Context())

	user, err := h.auth.Me(r.Context(), claims.UserID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, meResponse{
		CurrentUser: user,
		IsAdmin:     h.auth.IsAdmin(user.Email),
	})
}
