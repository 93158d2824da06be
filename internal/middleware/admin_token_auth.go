package middleware

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"
)

const defaultAdminTokenHeader = "X-Admin-Token"

// AdminTokenAuthConfig controls shared-token authentication for the API.
type AdminTokenAuthConfig struct {
	Token      string
	HeaderName string
}

// AdminTokenAuthMiddleware validates a shared admin token from request
// headers. An empty token disables authentication (local development).
func AdminTokenAuthMiddleware(cfg AdminTokenAuthConfig) func(http.Handler) http.Handler {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return func(next http.Handler) http.Handler {
			return next
		}
	}
	headerName := strings.TrimSpace(cfg.HeaderName)
	if headerName == "" {
		headerName = defaultAdminTokenHeader
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			provided := strings.TrimSpace(r.Header.Get(headerName))
			if !constantTimeTokenMatch(provided, token) {
				writeUnauthorized(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func constantTimeTokenMatch(provided string, expected string) bool {
	providedDigest := sha256.Sum256([]byte(provided))
	expectedDigest := sha256.Sum256([]byte(expected))
	return subtle.ConstantTimeCompare(providedDigest[:], expectedDigest[:]) == 1
}

func writeUnauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = fmt.Fprint(w, `{"error":"unauthorized"}`)
}
