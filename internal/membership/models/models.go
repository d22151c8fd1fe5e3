// Package models holds the identity and membership records the governance
// engine reads and, on approval, writes: societies, residents, providers and
// the relations between them.
package models

import (
	"strings"
	"time"

	id "habitat/pkg/domain"
	dErrors "habitat/pkg/domain-errors"
)

// Society is a residential community residents join and providers list in.
type Society struct {
	ID        id.SocietyID
	Name      string
	Address   string
	CreatedAt time.Time
}

// SocietyDetails is a society with its current approved resident count.
type SocietyDetails struct {
	Society
	ResidentCount int
}

// Resident is the profile of a resident user. One user has at most one.
type Resident struct {
	UserID    id.UserID
	Name      string
	Phone     string
	CreatedAt time.Time
}

// Provider is a service provider owned by one user.
type Provider struct {
	ID          id.ProviderID
	UserID      id.UserID
	Name        string
	ContactInfo string
	BriefNote   string
	// Approved flips to true the first time a listing request is approved.
	Approved  bool
	Services  []id.ServiceID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OffersService reports whether the provider offers svc.
func (p *Provider) OffersService(svc id.ServiceID) bool {
	for _, s := range p.Services {
		if s == svc {
			return true
		}
	}
	return false
}

// Service is a service category such as plumbing.
type Service struct {
	ID   id.ServiceID
	Name string
}

// ServiceCategory is a service with the number of approved providers offering
// it in one society.
type ServiceCategory struct {
	Service
	ApprovedProviderCount int
}

// NewSociety validates and builds a society.
func NewSociety(societyID id.SocietyID, name, address string, now time.Time) (*Society, error) {
	name = strings.TrimSpace(name)
	if societyID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "society id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "society name is required")
	}
	if len(name) > 255 {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "society name must be at most 255 characters")
	}
	return &Society{ID: societyID, Name: name, Address: strings.TrimSpace(address), CreatedAt: now}, nil
}

// NewResident validates and builds a resident profile.
func NewResident(userID id.UserID, name, phone string, now time.Time) (*Resident, error) {
	name = strings.TrimSpace(name)
	if userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "resident user id is required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "resident name is required")
	}
	return &Resident{UserID: userID, Name: name, Phone: strings.TrimSpace(phone), CreatedAt: now}, nil
}

// NewProvider validates and builds an unapproved provider.
func NewProvider(providerID id.ProviderID, userID id.UserID, name, contact string, services []id.ServiceID, now time.Time) (*Provider, error) {
	name = strings.TrimSpace(name)
	if providerID.IsNil() || userID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "provider and owner ids are required")
	}
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "provider name is required")
	}
	return &Provider{
		ID:          providerID,
		UserID:      userID,
		Name:        name,
		ContactInfo: strings.TrimSpace(contact),
		Services:    append([]id.ServiceID(nil), services...),
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}
