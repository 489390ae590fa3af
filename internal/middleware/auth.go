package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/templui/tutordesk/internal/ctxkeys"
	"github.com/templui/tutordesk/internal/service"
)

// Paths that stay reachable without a token
var publicPaths = []string{
	"/healthz",
	"/metrics",
}

// RequireToken rejects requests without a valid bearer token and puts the
// token subject in the context. Does nothing when auth is disabled.
func RequireToken(authService *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if !authService.Enabled() {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}
			for _, p := range publicPaths {
				if r.URL.Path == p {
					next.ServeHTTP(w, r)
					return
				}
			}

			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || token == "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="api"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			subject, err := authService.VerifyToken(token)
			if err != nil {
				slog.Warn("api token rejected", "path", r.URL.Path, "ip", getClientIP(r))
				w.Header().Set("WWW-Authenticate", `Bearer realm="api", error="invalid_token"`)
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			ctx := ctxkeys.WithTokenSubject(r.Context(), subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
