// Package requestcontext provides HTTP-independent accessors for request-scoped values.
//
// Middleware sets these values; services and stores read them without importing
// net/http. The authenticated session is carried here explicitly per request so
// the governance engine itself holds no session state.
//
// Usage in services (read values):
//
//	session := requestcontext.Session(ctx)
//	requestID := requestcontext.RequestID(ctx)
//	now := requestcontext.Now(ctx)
//
// Usage in tests (inject values):
//
//	ctx = requestcontext.WithTime(ctx, fixedTime)
//	ctx = requestcontext.WithSession(ctx, requestcontext.SessionInfo{UserID: uid, Role: RoleResident})
package requestcontext

import (
	"context"
	"time"

	id "habitat/pkg/domain"
)

// Role is the caller's role as asserted by the session token.
type Role string

const (
	RoleResident Role = "resident"
	RoleProvider Role = "provider"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleResident || r == RoleProvider
}

// SessionInfo is the authenticated caller of one request.
type SessionInfo struct {
	UserID    id.UserID
	SessionID id.SessionID
	Role      Role
}

// Authenticated reports whether the session carries a user.
func (s SessionInfo) Authenticated() bool {
	return !s.UserID.IsNil()
}

type (
	sessionKey     struct{}
	clientIPKey    struct{}
	userAgentKey   struct{}
	requestIDKey   struct{}
	requestTimeKey struct{}
)

// Exported context keys for direct use in tests that need context.WithValue.
var (
	ContextKeySession     = sessionKey{}
	ContextKeyClientIP    = clientIPKey{}
	ContextKeyUserAgent   = userAgentKey{}
	ContextKeyRequestID   = requestIDKey{}
	ContextKeyRequestTime = requestTimeKey{}
)

// -----------------------------------------------------------------------------
// Session
// -----------------------------------------------------------------------------

// Session retrieves the authenticated session. The zero value is returned when
// the request is anonymous.
func Session(ctx context.Context) SessionInfo {
	if s, ok := ctx.Value(ContextKeySession).(SessionInfo); ok {
		return s
	}
	return SessionInfo{}
}

// WithSession injects the authenticated session into the context.
func WithSession(ctx context.Context, s SessionInfo) context.Context {
	return context.WithValue(ctx, ContextKeySession, s)
}

// UserID is shorthand for Session(ctx).UserID.
func UserID(ctx context.Context) id.UserID {
	return Session(ctx).UserID
}

// -----------------------------------------------------------------------------
// Client metadata (IP, User-Agent)
// -----------------------------------------------------------------------------

func ClientIP(ctx context.Context) string {
	if ip, ok := ctx.Value(ContextKeyClientIP).(string); ok {
		return ip
	}
	return ""
}

func UserAgent(ctx context.Context) string {
	if ua, ok := ctx.Value(ContextKeyUserAgent).(string); ok {
		return ua
	}
	return ""
}

// WithClientMetadata injects client IP and User-Agent into a context.
func WithClientMetadata(ctx context.Context, clientIP, userAgent string) context.Context {
	ctx = context.WithValue(ctx, ContextKeyClientIP, clientIP)
	ctx = context.WithValue(ctx, ContextKeyUserAgent, userAgent)
	return ctx
}

// -----------------------------------------------------------------------------
// Request metadata
// -----------------------------------------------------------------------------

// RequestID retrieves the HTTP correlation ID from the context.
func RequestID(ctx context.Context) string {
	if reqID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return reqID
	}
	return ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// -----------------------------------------------------------------------------
// Request time
// -----------------------------------------------------------------------------

// Now retrieves the request-scoped time from context.
// Falls back to time.Now() if not set (workers, CLI).
func Now(ctx context.Context) time.Time {
	if t, ok := ctx.Value(ContextKeyRequestTime).(time.Time); ok {
		return t
	}
	return time.Now()
}

// WithTime injects a specific time into a context. Workers use it to give a
// whole batch one consistent "now"; tests use it to drive expiry.
func WithTime(ctx context.Context, t time.Time) context.Context {
	return context.WithValue(ctx, ContextKeyRequestTime, t)
}
