package middleware

import (
	"net/http"
	"strings"
)

// CORS answers preflight requests and sets Access-Control-* headers.
// allowOrigins is "*" or a comma-separated list; a listed origin is echoed
// back so credentials work.
func CORS(allowOrigins, allowHeaders string) func(http.Handler) http.Handler {
	allowAll := strings.TrimSpace(allowOrigins) == "*" || allowOrigins == ""
	allowed := make(map[string]bool)
	for _, o := range strings.Split(allowOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			allowed[o] = true
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case allowAll:
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && allowed[origin]:
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}

			if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
				w.Header().Set("Access-Control-Allow-Methods", "GET, HEAD, PUT, PATCH, POST, DELETE")
				headers := allowHeaders
				if headers == "" {
					headers = r.Header.Get("Access-Control-Request-Headers")
				}
				w.Header().Set("Access-Control-Allow-Headers", headers)
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
