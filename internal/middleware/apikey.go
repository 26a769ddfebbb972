package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/hotrph/calsync/internal/model"
)

// apiKeyHeader carries the admin credential. Admin endpoints are
// server-to-server, so a static key beats a session here.
const apiKeyHeader = "X-API-Key"

// NewAPIKeyMiddleware returns a middleware guarding admin routes with a
// static API key. The comparison is constant time.
func NewAPIKeyMiddleware(apiKey string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			presented := r.Header.Get(apiKeyHeader)
			if presented == "" || subtle.ConstantTimeCompare([]byte(presented), []byte(apiKey)) != 1 {
				WriteErrorResponse(w, http.StatusUnauthorized, &model.APIError{
					Code:     "INVALID_API_KEY",
					Message:  "a valid API key is required.",
					Category: "auth",
					Action:   "Send the admin API key in the X-API-Key header.",
				})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
