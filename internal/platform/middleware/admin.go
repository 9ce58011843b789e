package middleware

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"cardfleet/pkg/requestcontext"
)

const adminTokenHeader = "X-Admin-Token"

// RequireAdminToken gates admin routes behind a shared static token.
// General-purpose authentication lives in the fleet console; this service
// only needs to keep its operator surface off the open network.
func RequireAdminToken(token string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got := r.Header.Get(adminTokenHeader)
			if got == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				logger.WarnContext(r.Context(), "admin token rejected",
					"path", r.URL.Path,
					"remote", r.RemoteAddr,
				)
				w.WriteHeader(http.StatusForbidden)
				return
			}
			ctx := requestcontext.WithActor(r.Context(), "admin")
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
