package auth

import (
	"log/slog"
	"net/http"
	"strings"

	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
	"habitat/pkg/platform/httputil"
	request "habitat/pkg/platform/middleware/request"
	"habitat/pkg/requestcontext"
)

// JWTValidator defines the interface for validating session tokens.
type JWTValidator interface {
	ValidateToken(tokenString string) (*JWTClaims, error)
}

// JWTClaims represents the claims we expect from the JWT validator.
type JWTClaims struct {
	UserID    string
	SessionID string
	Role      string
}

// Session converts raw claims into a typed session. Malformed claims are
// treated as an invalid token.
func (c *JWTClaims) Session() (requestcontext.SessionInfo, error) {
	userID, err := id.ParseUserID(c.UserID)
	if err != nil {
		return requestcontext.SessionInfo{}, err
	}
	var sessionID id.SessionID
	if c.SessionID != "" {
		if sessionID, err = id.ParseSessionID(c.SessionID); err != nil {
			return requestcontext.SessionInfo{}, err
		}
	}
	role := requestcontext.Role(c.Role)
	if !role.Valid() {
		return requestcontext.SessionInfo{}, dErrors.New(dErrors.CodeUnauthorized, "unknown role")
	}
	return requestcontext.SessionInfo{UserID: userID, SessionID: sessionID, Role: role}, nil
}

// RequireAuth validates the bearer token and stores the session in the
// request context.
func RequireAuth(validator JWTValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestID := request.GetRequestID(ctx)

			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				logger.WarnContext(ctx, "unauthorized access - missing token",
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "missing or invalid Authorization header"))
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - invalid token",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			session, err := claims.Session()
			if err != nil {
				logger.WarnContext(ctx, "unauthorized access - malformed claims",
					"error", err,
					"request_id", requestID,
				)
				httputil.WriteError(w, dErrors.New(dErrors.CodeUnauthorized, "invalid or expired token"))
				return
			}

			ctx = requestcontext.WithSession(ctx, session)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole rejects authenticated callers whose role is not allowed.
func RequireRole(logger *slog.Logger, roles ...requestcontext.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			session := requestcontext.Session(ctx)
			for _, role := range roles {
				if session.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			logger.WarnContext(ctx, "role not permitted",
				"role", string(session.Role),
				"request_id", request.GetRequestID(ctx),
			)
			httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "role not permitted for this operation"))
		})
	}
}
