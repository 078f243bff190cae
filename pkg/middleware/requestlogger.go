package middleware

import (
	"log/slog"
	"net/http"

	"github.com/FutureFoodz/fuss-free-foodie-hub/pkg/logger"
)

// RequestLogger stores a request-scoped logger in the context, enriched with
// every identifier upstream middleware placed there (correlation, session,
// user, trace). Mount it after RequestLogging, Tracing and any middleware
// that resolves the session or the user.
func RequestLogger(base *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			if claims := ClaimsFromContext(ctx); claims != nil && logger.UserIDFromContext(ctx) == "" {
				ctx = logger.WithUserID(ctx, claims.UserID)
			}

			ctx = logger.NewContext(ctx, logger.WithContext(ctx, base))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
