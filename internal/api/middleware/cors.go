package middleware

import (
	"net/http"
	"strings"
)

const (
	corsAllowHeaders = "Content-Type, X-Request-ID"
	corsAllowMethods = "GET, POST, PUT, DELETE, OPTIONS"
)

// CORS lets the dashboard frontends call the API. origins lists exact
// origins; a "*" entry opens the API to any origin without credentials and
// answers with a literal "*" rather than echoing the caller.
func CORS(origins []string) func(http.Handler) http.Handler {
	allowed := make(map[string]bool, len(origins))
	anyOrigin := false
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			anyOrigin = true
			continue
		}
		allowed[o] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			h := w.Header()
			switch {
			case origin == "":
			case allowed[origin]:
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
			case anyOrigin:
				h.Set("Access-Control-Allow-Origin", "*")
			default:
				origin = ""
			}
			if origin != "" {
				h.Set("Access-Control-Allow-Headers", corsAllowHeaders)
				h.Set("Access-Control-Allow-Methods", corsAllowMethods)
				h.Set("Access-Control-Max-Age", "86400")
			}

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
