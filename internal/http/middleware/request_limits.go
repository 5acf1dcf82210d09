package middleware

import (
	"net/http"

	"github.com/tendant/krishi-auth/internal/httputil"
)

// RequestSizeLimit creates middleware that limits the maximum request body size.
// Requests that declare a larger Content-Length are refused up front; the rest
// are capped while the handler reads them.
func RequestSizeLimit(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.ContentLength > maxBytes {
				httputil.Error(w, http.StatusRequestEntityTooLarge, "request body too large")
				return
			}

			// Limit request body size to prevent memory exhaustion
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

			next.ServeHTTP(w, r)
		})
	}
}
