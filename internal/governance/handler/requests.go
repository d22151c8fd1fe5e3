package handler

import (
	"strings"

	"habitat/internal/governance/models"
	id "habitat/pkg/domain"
)

// CreateVotingRequest is the body of POST /voting-requests.
type CreateVotingRequest struct {
	RequestType string `json:"request_type" validate:"required,oneof=resident_join provider_listing"`
	SocietyID   string `json:"society_id" validate:"required,uuid"`

	requestType models.RequestType
	societyID   id.SocietyID
}

func (r *CreateVotingRequest) Validate() error {
	r.RequestType = strings.TrimSpace(r.RequestType)
	t, err := models.ParseRequestType(r.RequestType)
	if err != nil {
		return err
	}
	societyID, err := id.ParseSocietyID(strings.TrimSpace(r.SocietyID))
	if err != nil {
		return err
	}
	r.requestType = t
	r.societyID = societyID
	return nil
}

// CastVoteRequest is the body of POST /voting-requests/{id}/votes.
type CastVoteRequest struct {
	Decision string `json:"decision" validate:"required,oneof=approve reject"`

	decision models.Decision
}

func (r *CastVoteRequest) Validate() error {
	d, err := models.ParseDecision(strings.TrimSpace(r.Decision))
	if err != nil {
		return err
	}
	r.decision = d
	return nil
}
