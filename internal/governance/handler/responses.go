package handler

import (
	"time"

	"habitat/internal/governance/service"
)

type SocietyResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

type ResidentResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type ProviderResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ContactInfo string `json:"contact_info"`
}

type SubjectResponse struct {
	Type     string            `json:"type"`
	UserID   string            `json:"user_id"`
	Resident *ResidentResponse `json:"resident,omitempty"`
	Provider *ProviderResponse `json:"provider,omitempty"`
}

// VotingRequestResponse is a voting request as seen by the caller.
type VotingRequestResponse struct {
	ID                 string          `json:"id"`
	RequestType        string          `json:"request_type"`
	Society            SocietyResponse `json:"society"`
	SocietyName        string          `json:"society_name"`
	Subject            SubjectResponse `json:"subject"`
	InitiatedBy        string          `json:"initiated_by"`
	Status             string          `json:"status"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
	ExpiryTime         time.Time       `json:"expiry_time"`
	ApprovedVotesCount int             `json:"approved_votes_count"`
	RejectedVotesCount int             `json:"rejected_votes_count"`
	HasVoted           bool            `json:"has_voted"`
}

// PendingCommitResponse adds the commit bookkeeping operators need.
type PendingCommitResponse struct {
	VotingRequestResponse
	CommitAttempts  int    `json:"commit_attempts"`
	LastCommitError string `json:"last_commit_error,omitempty"`
	Escalated       bool   `json:"escalated"`
}

// SweepResponse reports a maintenance run.
type SweepResponse struct {
	Count int `json:"count"`
}

func toResponse(v *service.RequestView) VotingRequestResponse {
	subject := SubjectResponse{
		Type:   string(v.Subject.Type),
		UserID: v.Subject.UserID.String(),
	}
	if res := v.Subject.Resident; res != nil {
		subject.Resident = &ResidentResponse{ID: res.UserID.String(), Name: res.Name}
	}
	if p := v.Subject.Provider; p != nil {
		subject.Provider = &ProviderResponse{ID: p.ID.String(), Name: p.Name, ContactInfo: p.ContactInfo}
	}
	return VotingRequestResponse{
		ID:          v.ID.String(),
		RequestType: string(v.Type),
		Society: SocietyResponse{
			ID:      v.Society.ID.String(),
			Name:    v.Society.Name,
			Address: v.Society.Address,
		},
		SocietyName:        v.Society.Name,
		Subject:            subject,
		InitiatedBy:        v.InitiatedBy.String(),
		Status:             string(v.Status),
		CreatedAt:          v.CreatedAt.UTC(),
		UpdatedAt:          v.UpdatedAt.UTC(),
		ExpiryTime:         v.ExpiryTime.UTC(),
		ApprovedVotesCount: v.ApprovedVotes,
		RejectedVotesCount: v.RejectedVotes,
		HasVoted:           v.HasVoted,
	}
}

func toResponses(list []*service.RequestView) []VotingRequestResponse {
	out := make([]VotingRequestResponse, 0, len(list))
	for _, v := range list {
		out = append(out, toResponse(v))
	}
	return out
}

func toPendingCommitResponses(list []*service.PendingCommitView) []PendingCommitResponse {
	out := make([]PendingCommitResponse, 0, len(list))
	for _, v := range list {
		out = append(out, PendingCommitResponse{
			VotingRequestResponse: toResponse(&v.RequestView),
			CommitAttempts:        v.CommitAttempts,
			LastCommitError:       v.LastCommitError,
			Escalated:             v.Escalated,
		})
	}
	return out
}
