// Package domain holds typed identifiers shared across bounded contexts.
//
// Every identifier is a distinct named UUID type so a SocietyID can never be
// passed where a UserID is expected. Parse functions are the trust boundary:
// they reject empty, malformed, and nil UUIDs with CodeInvalidInput.
package domain

import (
	"github.com/google/uuid"

	dErrors "habitat/pkg/domain-errors"
)

type (
	UserID     uuid.UUID
	SessionID  uuid.UUID
	SocietyID  uuid.UUID
	ProviderID uuid.UUID
	ServiceID  uuid.UUID
	RequestID  uuid.UUID
)

func (id UserID) String() string { return uuid.UUID(id).String() }
func (id SessionID) String() string { return uuid.UUID(id).String() }
func (id SocietyID) String() string { return uuid.UUID(id).String() }
func (id ProviderID) String() string { return uuid.UUID(id).String() }
func (id ServiceID) String() string { return uuid.UUID(id).String() }
func (id RequestID) String() string { return uuid.UUID(id).String() }

func (id UserID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SessionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id SocietyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ProviderID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id ServiceID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id RequestID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }

// NewRequestID returns a random voting request identifier.
func NewRequestID() RequestID { return RequestID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s, "user_id")
	return UserID(u), err
}

func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s, "session_id")
	return SessionID(u), err
}

func ParseSocietyID(s string) (SocietyID, error) {
	u, err := parseUUID(s, "society_id")
	return SocietyID(u), err
}

func ParseProviderID(s string) (ProviderID, error) {
	u, err := parseUUID(s, "provider_id")
	return ProviderID(u), err
}

func ParseServiceID(s string) (ServiceID, error) {
	u, err := parseUUID(s, "service_id")
	return ServiceID(u), err
}

func ParseRequestID(s string) (RequestID, error) {
	u, err := parseUUID(s, "request_id")
	return RequestID(u), err
}

// parseUUID rejects anything but a canonical, non-nil UUID.
func parseUUID(s, field string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is required")
	}
	if len(s) > 64 {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" is too long")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "invalid "+field)
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, field+" must not be nil")
	}
	return u, nil
}
