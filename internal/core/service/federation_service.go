package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/ports"
)

// FederationService converges an external OAuth identity onto the credential
// store. Email is the sole merge key: a local account and any number of
// provider logins sharing an email all land on one row.
type FederationService struct {
	repo ports.UserRepository
}

func NewFederationService(repo ports.UserRepository) *FederationService {
	return &FederationService{repo: repo}
}

// Resolve looks up or creates the user behind an OAuth profile.
//
// When the profile carries no email (GitHub permits hiding it), a
// deterministic placeholder {username}@{provider}.local stands in so repeated
// logins still converge on the same row.
func (s *FederationService) Resolve(ctx context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error) {
	if provider != domain.ProviderGoogle && provider != domain.ProviderGitHub {
		return nil, domain.ErrUnknownProvider
	}

	email := domain.NormalizeEmail(profile.Email)
	if email == "" {
		handle := profile.Username
		if handle == "" {
			handle = profile.ID
		}
		email = domain.NormalizeEmail(fmt.Sprintf("%s@%s.local", handle, provider))
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		return s.createFromProfile(ctx, provider, email, profile)
	}

	// Repeated logins through the same provider are idempotent.
	if user.Provider == provider {
		return user, nil
	}

	// Cross-channel login: re-tag the account. The stored password hash, if
	// any, stays untouched so local login keeps working.
	user.Provider = provider
	user.ProviderID = profile.ID
	if profile.Avatar != "" {
		user.Avatar = profile.Avatar
	}
	user.EmailVerified = true
	user.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, user)
}

func (s *FederationService) createFromProfile(ctx context.Context, provider, email string, profile domain.ExternalProfile) (*domain.User, error) {
	name := profile.Name
	if name == "" {
		name = profile.Username
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:          name,
		Email:         email,
		Provider:      provider,
		ProviderID:    profile.ID,
		Avatar:        profile.Avatar,
		Role:          domain.RoleUser,
		Plan:          domain.PlanFree,
		EmailVerified: true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	created, err := s.repo.Create(ctx, user)
	if err == nil {
		return created, nil
	}
	// Lost a creation race on the unique email index: somebody else inserted
	// the row between lookup and insert. Converge on theirs.
	if errors.Is(err, domain.ErrEmailTaken) {
		return s.repo.FindByEmail(ctx, email)
	}
	return nil, err
}
