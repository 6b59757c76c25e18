package cms

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Profile is the user identity to mirror.
type Profile struct {
	ExternalID string `json:"externalId"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	ImageURL   string `json:"imageUrl"`
}

// Syncer upserts user profiles into the CMS: patch the existing document
// when one matches by external id or email, create it otherwise.
type Syncer struct {
	client *Client
	log    *zap.Logger
}

// NewSyncer builds a syncer over the client.
func NewSyncer(client *Client, log *zap.Logger) *Syncer {
	return &Syncer{client: client, log: log}
}

// SyncUser mirrors the profile, reporting whether a document was created.
// Empty incoming fields never overwrite existing values.
func (s *Syncer) SyncUser(ctx context.Context, p Profile) (created bool, err error) {
	if p.ExternalID == "" {
		return false, fmt.Errorf("external id is required")
	}

	existing, err := s.client.FindUser(ctx, p.ExternalID, p.Email)
	if err != nil {
		return false, err
	}

	if existing != nil {
		set := map[string]any{
			"externalId": orKeep(p.ExternalID, existing.ExternalID),
			"email":      orKeep(p.Email, existing.Email),
			"firstName":  orKeep(p.FirstName, existing.FirstName),
			"lastName":   orKeep(p.LastName, existing.LastName),
			"imageUrl":   orKeep(p.ImageURL, existing.ImageURL),
		}
		if err := s.client.PatchUser(ctx, existing.ID, set); err != nil {
			return false, err
		}
		s.log.Info("user updated in cms", zap.String("externalId", p.ExternalID))
		return false, nil
	}

	if err := s.client.CreateUser(ctx, UserDoc{
		ExternalID: p.ExternalID,
		Email:      p.Email,
		FirstName:  p.FirstName,
		LastName:   p.LastName,
		ImageURL:   p.ImageURL,
	}); err != nil {
		return false, err
	}

	s.log.Info("user created in cms", zap.String("externalId", p.ExternalID))
	return true, nil
}

func orKeep(incoming, existing string) string {
	if incoming != "" {
		return incoming
	}
	return existing
}
