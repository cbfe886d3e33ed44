package middleware

import (
	"net/http"

	"github.com/Vasu1712/dronepilot-backend/internal/api"
	"github.com/Vasu1712/dronepilot-backend/internal/auth"
	"github.com/Vasu1712/dronepilot-backend/internal/logging"
)

// RequireAuth rejects requests without a valid session token with 401 and
// stores the verified identity in the request context otherwise.
func RequireAuth(verifier auth.Verifier, logger logging.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			identity, err := verifier.Verify(r.Context(), auth.TokenFromRequest(r))
			if err != nil {
				logger.Warn(r.Context(), "auth rejected", "method", r.Method, "path", r.URL.Path, "error", err)
				api.Fail(w, http.StatusUnauthorized, api.MsgUnauthorized)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), identity)))
		})
	}
}
