package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowedHeaders = "Authorization, Content-Type, X-Business-Id"
	corsAllowedMethods = "GET, POST, PUT, PATCH, DELETE, OPTIONS"
	corsMaxAgeSeconds  = "600"
)

// originSet is the configured CORS allowlist. The wildcard entry "*"
// matches any origin; the matched origin is always echoed back rather than
// a literal "*" so credentialed requests keep working.
type originSet struct {
	any     bool
	origins map[string]bool
}

func newOriginSet(allowed []string) originSet {
	set := originSet{origins: make(map[string]bool, len(allowed))}
	for _, origin := range allowed {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
		case "*":
			set.any = true
		default:
			set.origins[origin] = true
		}
	}
	return set
}

func (s originSet) matches(origin string) bool {
	return s.any || s.origins[origin]
}

// CORS applies the practice's browser-origin allowlist to every response
// and answers preflight requests directly.
func CORS(allowedOrigins []string) func(http.Handler) http.Handler {
	allowed := newOriginSet(allowedOrigins)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := strings.TrimSpace(r.Header.Get("Origin"))
			if origin != "" && allowed.matches(origin) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
				h.Set("Access-Control-Max-Age", corsMaxAgeSeconds)
			}

			if isPreflight(r, origin) {
				w.WriteHeader(http.StatusNoContent)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func isPreflight(r *http.Request, origin string) bool {
	return r.Method == http.MethodOptions &&
		origin != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}
