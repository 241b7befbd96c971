package auth

import (
	"context"
	"net/http"

	"go.uber.org/zap"
)

type contextKey string

const userContextKey contextKey = "auth.user"

// UserFromContext returns the authenticated user attached by Middleware.
func UserFromContext(ctx context.Context) (*UserContext, bool) {
	user, ok := ctx.Value(userContextKey).(*UserContext)
	return user, ok
}

// WithUser attaches a user to a context. Exposed for tests and for the
// websocket path, which authenticates outside the middleware chain.
func WithUser(ctx context.Context, user *UserContext) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// Middleware authenticates requests with a bearer token and attaches the
// user to the request context. Requests with missing, malformed, or expired
// tokens get 401 before any handler runs.
func Middleware(tokens *JWTManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := ExtractBearerToken(r.Header.Get("Authorization"))
			if err != nil {
				http.Error(w, "missing or malformed authorization header", http.StatusUnauthorized)
				return
			}
			user, err := tokens.ValidateToken(raw)
			if err != nil {
				logger.Debug("token rejected", zap.Error(err))
				http.Error(w, "credential expired or invalid", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}
