package chi

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/notesearch/internal/domain"
	"github.com/kailas-cloud/notesearch/internal/logger"
)

// DefaultUserHeader carries the caller identity set by the session layer in front of the service.
const DefaultUserHeader = "X-User-ID"

// exemptPaths are routes that bypass authentication (health, metrics).
var exemptPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// BearerAuthMiddleware returns a middleware that validates Bearer tokens.
// If apiKeys is empty, authentication is disabled (pass-through).
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	validKeys := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			validKeys[k] = struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		// Auth disabled
		if len(validKeys) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := exemptPaths[r.URL.Path]; ok || r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			auth := r.Header.Get("Authorization")
			if auth == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "missing authorization header")
				return
			}

			const bearerPrefix = "Bearer "
			if !strings.HasPrefix(auth, bearerPrefix) {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "authorization header must use Bearer scheme")
				return
			}

			token := auth[len(bearerPrefix):]
			if _, ok := validKeys[token]; !ok {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, "invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// RequireUser rejects requests without the identity header and stores the user ID in the context.
func RequireUser(header string) func(http.Handler) http.Handler {
	if header == "" {
		header = DefaultUserHeader
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := strings.TrimSpace(r.Header.Get(header))
			if userID == "" {
				writeError(w, http.StatusUnauthorized, CodeUnauthenticated, domain.ErrUnauthenticated.Error())
				return
			}
			ctx := domain.ContextWithCaller(r.Context(), userID)
			ctx = logger.With(ctx, zap.String("user_id", userID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
