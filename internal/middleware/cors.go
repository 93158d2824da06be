package middleware

import (
	"net/http"
	"strings"
)

// CORSConfig configures Cross-Origin Resource Sharing (CORS) policies.
type CORSConfig struct {
	Enabled        bool
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

// CORSMiddleware adds CORS headers and handles preflight requests.
func CORSMiddleware(cfg CORSConfig) func(http.Handler) http.Handler {
	if !cfg.Enabled {
		return func(next http.Handler) http.Handler {
			return next
		}
	}

	allowAllOrigins := false
	allowedOrigins := make(map[string]struct{})
	for _, origin := range cfg.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin == "" {
			continue
		}
		if origin == "*" {
			allowAllOrigins = true
			break
		}
		allowedOrigins[origin] = struct{}{}
	}

	methodsHeader := strings.Join(cfg.AllowedMethods, ", ")
	headersHeader := strings.Join(cfg.AllowedHeaders, ", ")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin == "" {
				next.ServeHTTP(w, r)
				return
			}

			allowOrigin := allowAllOrigins
			if !allowAllOrigins {
				_, allowOrigin = allowedOrigins[origin]
			}

			if allowOrigin {
				if allowAllOrigins {
					w.Header().Set("Access-Control-Allow-Origin", "*")
				} else {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					w.Header().Add("Vary", "Origin")
				}
				if methodsHeader != "" {
					w.Header().Set("Access-Control-Allow-Methods", methodsHeader)
				}
				if headersHeader != "" {
					w.Header().Set("Access-Control-Allow-Headers", headersHeader)
				}
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
