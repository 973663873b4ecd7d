// Package requesttime pins a request-scoped time at the start of each request.
// All operations within a single HTTP request observe the same "now" timestamp,
// ensuring consistency in audit entries, domain timestamps, and status checks
// that compare against expiry instants.
package requesttime

import (
	"net/http"
	"time"

	"laurel/pkg/requestcontext"
)

// Middleware captures the current UTC time at the start of the request
// and stores it in the context via requestcontext.WithTime, so that
// requestcontext.Now returns one consistent instant for the whole request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := requestcontext.WithTime(r.Context(), time.Now().UTC())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
