package http

import (
	"context"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/FutureFoodz/fuss-free-foodie-hub/internal/domain"
	apperrors "github.com/FutureFoodz/fuss-free-foodie-hub/pkg/errors"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/httputil"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/logger"
	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/middleware"
)

// Session identification.
const (
	SessionHeader     = "X-Session-ID"
	SessionCookieName = "cart_session"
)

// sessionIDPattern bounds client-supplied session IDs.
var sessionIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{8,128}$`)

type contextKey string

const sessionIDKey contextKey = "session_id"

// SessionConfig configures the session cookie.
type SessionConfig struct {
	// MaxAge is the cookie lifetime. Zero makes it a browser-session cookie.
	MaxAge time.Duration

	// Secure marks the cookie HTTPS-only.
	Secure bool
}

// Session resolves the cart session from the X-Session-ID header or the
// cart_session cookie. Requests without a usable ID get a fresh one, returned
// as a cookie and in the response header.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := strings.TrimSpace(r.Header.Get(SessionHeader))
			if id == "" {
				if c, err := r.Cookie(SessionCookieName); err == nil {
					id = c.Value
				}
			}

			if !sessionIDPattern.MatchString(id) {
				id = uuid.New().String()
				cookie := &http.Cookie{
					Name:     SessionCookieName,
					Value:    id,
					Path:     "/",
					HttpOnly: true,
					Secure:   cfg.Secure,
					SameSite: http.SameSiteLaxMode,
				}
				if cfg.MaxAge > 0 {
					cookie.MaxAge = int(cfg.MaxAge.Seconds())
				}
				http.SetCookie(w, cookie)
			}
			w.Header().Set(SessionHeader, id)

			ctx := context.WithValue(r.Context(), sessionIDKey, id)
			ctx = logger.WithSessionID(ctx, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// sessionIDFromContext returns the session resolved by Session.
func sessionIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(sessionIDKey).(string)
	return id
}

// RequireAdmin admits only the admin identity. Anonymous requests get 401
// and other users 403.
func RequireAdmin(adminEmail string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims := middleware.ClaimsFromContext(r.Context())
			if claims == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("authentication required"), nil)
				return
			}
			if !domain.IsAdminEmail(claims.Email, adminEmail) {
				httputil.WriteError(w, r, apperrors.Forbidden("admin access required"), nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON enforces that requests with a body have Content-Type: application/json.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength > 0 || r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch {
			ct := r.Header.Get("Content-Type")
			if ct != "" && !strings.HasPrefix(ct, "application/json") {
				httputil.WriteJSON(w, http.StatusUnsupportedMediaType, httputil.Response{
					Error: &httputil.ErrorResponse{Code: "UNSUPPORTED_MEDIA_TYPE", Message: "Content-Type must be application/json"},
				})
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}
