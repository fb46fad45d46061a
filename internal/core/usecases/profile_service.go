package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/samirrijal/questline/internal/core/domain"
	"github.com/samirrijal/questline/internal/core/ports"
)

// ProfileService handles the user directory: registration, lookups and
// interest updates. It is plain keyed persistence, no quest logic.
type ProfileService struct {
	profiles  ports.ProfileRepository
	generator ports.RouteGenerator
}

// NewProfileService creates a new ProfileService. generator may be nil;
// interest suggestions then echo the input.
func NewProfileService(profiles ports.ProfileRepository, generator ports.RouteGenerator) *ProfileService {
	return &ProfileService{profiles: profiles, generator: generator}
}

// Register creates or updates the user record. Re-registering keeps the
// stored interests.
func (s *ProfileService) Register(ctx context.Context, userID, name, phone string) (*domain.Profile, error) {
	if userID == "" {
		return nil, fmt.Errorf("user id must not be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("name must not be empty")
	}

	p := &domain.Profile{UserID: userID, Name: name, Phone: phone}
	if existing, err := s.profiles.Get(ctx, userID); err == nil && existing != nil {
		p.Interests = existing.Interests
	}

	if err := s.profiles.Upsert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// Get returns a user's profile.
func (s *ProfileService) Get(ctx context.Context, userID string) (*domain.Profile, error) {
	return s.profiles.Get(ctx, userID)
}

// UpdateInterests stores a new free-text interest profile.
func (s *ProfileService) UpdateInterests(ctx context.Context, userID, interests string) error {
	if strings.TrimSpace(interests) == "" {
		return fmt.Errorf("interests must not be empty")
	}
	return s.profiles.UpdateInterests(ctx, userID, interests)
}

// SuggestInterests asks the generator for refined interest suggestions.
// Any generator trouble degrades to echoing the input; suggestions are a
// convenience, never a hard dependency.
func (s *ProfileService) SuggestInterests(ctx context.Context, input string) []string {
	if s.generator == nil {
		return []string{input}
	}
	suggestions, err := s.generator.SuggestInterests(ctx, input)
	if err != nil || len(suggestions) == 0 {
		return []string{input}
	}
	return suggestions
}
