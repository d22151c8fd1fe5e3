package testutil

import (
	"net/http"

	id "habitat/pkg/domain"
	"habitat/pkg/requestcontext"
)

// AsResident attaches a resident session to req, as the auth middleware would.
func AsResident(req *http.Request, userID id.UserID) *http.Request {
	return WithSession(req, userID, requestcontext.RoleResident)
}

// AsProvider attaches a provider session to req.
func AsProvider(req *http.Request, userID id.UserID) *http.Request {
	return WithSession(req, userID, requestcontext.RoleProvider)
}

// WithSession attaches an authenticated session with the given role.
func WithSession(req *http.Request, userID id.UserID, role requestcontext.Role) *http.Request {
	ctx := requestcontext.WithSession(req.Context(), requestcontext.SessionInfo{
		UserID: userID,
		Role:   role,
	})
	return req.WithContext(ctx)
}
