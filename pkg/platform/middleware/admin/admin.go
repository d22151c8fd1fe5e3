package admin

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/httputil"
	request "habitat/pkg/platform/middleware/request"
	"habitat/pkg/platform/secrets"
)

// HeaderAdminToken carries the operator token for /admin routes.
const HeaderAdminToken = "X-Admin-Token"

// RequireAdminToken guards operator endpoints (sweep, reconcile). expected is
// either the plaintext token or its bcrypt hash. An empty expected token
// disables the routes entirely.
func RequireAdminToken(expected string, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !tokenMatches(r.Header.Get(HeaderAdminToken), expected) {
				ctx := r.Context()
				logger.WarnContext(ctx, "admin token mismatch",
					"request_id", request.GetRequestID(ctx),
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "admin token required"))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func tokenMatches(sent, expected string) bool {
	if expected == "" || sent == "" {
		return false
	}
	if secrets.IsHash(expected) {
		return secrets.Verify(sent, expected) == nil
	}
	return subtle.ConstantTimeCompare([]byte(sent), []byte(expected)) == 1
}
