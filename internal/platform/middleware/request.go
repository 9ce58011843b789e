package middleware

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"cardfleet/pkg/requestcontext"
)

// RequestMetadata stamps each request with a correlation ID and a
// request-scoped time so services observe one consistent clock per request.
func RequestMetadata(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-Id")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		ctx := requestcontext.WithRequestID(r.Context(), requestID)
		ctx = requestcontext.WithTime(ctx, time.Now().UTC())
		w.Header().Set("X-Request-Id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
