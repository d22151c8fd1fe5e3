package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"habitat/internal/membership/models"
	id "habitat/pkg/domain"
	"habitat/pkg/platform/sentinel"
)

// Seeder is the write surface used to load fixtures.
type Seeder interface {
	CreateService(ctx context.Context, svc *models.Service) error
	CreateSociety(ctx context.Context, society *models.Society) error
	CreateResident(ctx context.Context, resident *models.Resident) error
	CreateProvider(ctx context.Context, provider *models.Provider) error
	AddMember(ctx context.Context, societyID id.SocietyID, userID id.UserID) error
	CommitListing(ctx context.Context, societyID id.SocietyID, providerID id.ProviderID) error
}

// SeedFile is the fixture document accepted by Seed.
type SeedFile struct {
	Services []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"services"`
	Societies []struct {
		ID      string   `json:"id"`
		Name    string   `json:"name"`
		Address string   `json:"address"`
		Members []string `json:"members"`
	} `json:"societies"`
	Residents []struct {
		UserID string `json:"user_id"`
		Name   string `json:"name"`
		Phone  string `json:"phone"`
	} `json:"residents"`
	Providers []struct {
		ID          string   `json:"id"`
		UserID      string   `json:"user_id"`
		Name        string   `json:"name"`
		ContactInfo string   `json:"contact_info"`
		Services    []string `json:"services"`
		ListedIn    []string `json:"listed_in"`
	} `json:"providers"`
}

// SeedStats counts the records a seed run created.
type SeedStats struct {
	Services, Societies, Residents, Providers, Members, Listings int
}

// SeedFromFile loads a JSON fixture from path.
func SeedFromFile(ctx context.Context, s Seeder, path string) (SeedStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return SeedStats{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Seed(ctx, s, f)
}

// Seed loads fixtures from r. Records that already exist are skipped, so the
// same file can be applied repeatedly.
func Seed(ctx context.Context, s Seeder, r io.Reader) (SeedStats, error) {
	var doc SeedFile
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return SeedStats{}, fmt.Errorf("decode seed file: %w", err)
	}

	var stats SeedStats
	now := time.Now().UTC()

	for _, raw := range doc.Services {
		svcID, err := id.ParseServiceID(raw.ID)
		if err != nil {
			return stats, err
		}
		created, err := skipExisting(s.CreateService(ctx, &models.Service{ID: svcID, Name: raw.Name}))
		if err != nil {
			return stats, fmt.Errorf("seed service %s: %w", raw.Name, err)
		}
		stats.Services += created
	}

	for _, raw := range doc.Societies {
		societyID, err := id.ParseSocietyID(raw.ID)
		if err != nil {
			return stats, err
		}
		society, err := models.NewSociety(societyID, raw.Name, raw.Address, now)
		if err != nil {
			return stats, err
		}
		created, err := skipExisting(s.CreateSociety(ctx, society))
		if err != nil {
			return stats, fmt.Errorf("seed society %s: %w", raw.Name, err)
		}
		stats.Societies += created
	}

	for _, raw := range doc.Residents {
		userID, err := id.ParseUserID(raw.UserID)
		if err != nil {
			return stats, err
		}
		resident, err := models.NewResident(userID, raw.Name, raw.Phone, now)
		if err != nil {
			return stats, err
		}
		created, err := skipExisting(s.CreateResident(ctx, resident))
		if err != nil {
			return stats, fmt.Errorf("seed resident %s: %w", raw.Name, err)
		}
		stats.Residents += created
	}

	for _, raw := range doc.Providers {
		providerID, err := id.ParseProviderID(raw.ID)
		if err != nil {
			return stats, err
		}
		userID, err := id.ParseUserID(raw.UserID)
		if err != nil {
			return stats, err
		}
		services := make([]id.ServiceID, 0, len(raw.Services))
		for _, rawSvc := range raw.Services {
			svcID, err := id.ParseServiceID(rawSvc)
			if err != nil {
				return stats, err
			}
			services = append(services, svcID)
		}
		provider, err := models.NewProvider(providerID, userID, raw.Name, raw.ContactInfo, services, now)
		if err != nil {
			return stats, err
		}
		created, err := skipExisting(s.CreateProvider(ctx, provider))
		if err != nil {
			return stats, fmt.Errorf("seed provider %s: %w", raw.Name, err)
		}
		stats.Providers += created

		for _, rawSociety := range raw.ListedIn {
			societyID, err := id.ParseSocietyID(rawSociety)
			if err != nil {
				return stats, err
			}
			if err := s.CommitListing(ctx, societyID, providerID); err != nil {
				return stats, fmt.Errorf("seed listing %s: %w", raw.Name, err)
			}
			stats.Listings++
		}
	}

	for _, raw := range doc.Societies {
		societyID, _ := id.ParseSocietyID(raw.ID)
		for _, rawMember := range raw.Members {
			userID, err := id.ParseUserID(rawMember)
			if err != nil {
				return stats, err
			}
			if err := s.AddMember(ctx, societyID, userID); err != nil {
				return stats, fmt.Errorf("seed member %s of %s: %w", rawMember, raw.Name, err)
			}
			stats.Members++
		}
	}
	return stats, nil
}

func skipExisting(err error) (int, error) {
	switch {
	case err == nil:
		return 1, nil
	case errors.Is(err, sentinel.ErrConflict):
		return 0, nil
	default:
		return 0, err
	}
}
