package handler

import "habitat/internal/membership/models"

// SocietyResponse is a society as shown in membership listings.
type SocietyResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Address       string `json:"address"`
	ResidentCount int    `json:"resident_count"`
}

// ProviderResponse is a listed provider.
type ProviderResponse struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	ContactInfo string   `json:"contact_info"`
	BriefNote   string   `json:"brief_note,omitempty"`
	Services    []string `json:"services"`
}

// ServiceCategoryResponse is a service with its approved provider count.
type ServiceCategoryResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	ProviderCount int    `json:"provider_count"`
}

func toSocietyResponses(list []*models.SocietyDetails) []SocietyResponse {
	out := make([]SocietyResponse, 0, len(list))
	for _, s := range list {
		out = append(out, SocietyResponse{
			ID:            s.ID.String(),
			Name:          s.Name,
			Address:       s.Address,
			ResidentCount: s.ResidentCount,
		})
	}
	return out
}

func toProviderResponses(list []*models.Provider) []ProviderResponse {
	out := make([]ProviderResponse, 0, len(list))
	for _, p := range list {
		services := make([]string, 0, len(p.Services))
		for _, svc := range p.Services {
			services = append(services, svc.String())
		}
		out = append(out, ProviderResponse{
			ID:          p.ID.String(),
			Name:        p.Name,
			ContactInfo: p.ContactInfo,
			BriefNote:   p.BriefNote,
			Services:    services,
		})
	}
	return out
}

func toCategoryResponses(list []*models.ServiceCategory) []ServiceCategoryResponse {
	out := make([]ServiceCategoryResponse, 0, len(list))
	for _, c := range list {
		out = append(out, ServiceCategoryResponse{
			ID:            c.ID.String(),
			Name:          c.Name,
			ProviderCount: c.ApprovedProviderCount,
		})
	}
	return out
}
