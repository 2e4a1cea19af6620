package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/launchbase/accounts-api/internal/core/domain"
	"github.com/launchbase/accounts-api/internal/core/ports"
	"github.com/launchbase/accounts-api/internal/core/token"
)

const maxNameLen = 50

// AuthService implements local registration, credential login and profile
// management on top of the credential store.
type AuthService struct {
	repo   ports.UserRepository
	tokens *token.Issuer
}

func NewAuthService(repo ports.UserRepository, tokens *token.Issuer) *AuthService {
	return &AuthService{repo: repo, tokens: tokens}
}

// Register creates a local user and returns a fresh session token alongside
// it. The existence pre-check is best-effort; the store's unique email index
// decides races.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (string, *domain.User, error) {
	name = trimName(name)
	email = domain.NormalizeEmail(email)
	if name == "" || len(name) > maxNameLen || email == "" || password == "" {
		return "", nil, domain.ErrInvalidInput
	}

	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return "", nil, domain.ErrEmailTaken
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return "", nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Provider:     domain.ProviderLocal,
		Role:         domain.RoleUser,
		Plan:         domain.PlanFree,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return "", nil, err
	}

	tok, err := s.tokens.Issue(created.ID)
	if err != nil {
		return "", nil, err
	}
	return tok, created, nil
}

// Login verifies a credential pair and returns a session token. Unknown
// email, wrong password and OAuth-only account (no stored hash) all return
// the same domain.ErrInvalidCredentials so responses cannot be used to
// enumerate accounts or their providers.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if user.PasswordHash == "" {
		return "", nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	tok, err := s.tokens.Issue(user.ID)
	if err != nil {
		return "", nil, err
	}
	return tok, user, nil
}

func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.repo.FindByID(ctx, id)
}

// UpdateProfile changes name and/or email of an existing user. Empty fields
// are left untouched. The password hash is never rewritten here.
func (s *AuthService) UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if name = trimName(name); name != "" {
		if len(name) > maxNameLen {
			return nil, domain.ErrInvalidInput
		}
		user.Name = name
	}
	if email = domain.NormalizeEmail(email); email != "" && email != user.Email {
		if _, err := s.repo.FindByEmail(ctx, email); err == nil {
			return nil, domain.ErrEmailTaken
		} else if !errors.Is(err, domain.ErrUserNotFound) {
			return nil, err
		}
		user.Email = email
	}
	user.UpdatedAt = time.Now().UTC()

	return s.repo.Update(ctx, user)
}

func (s *AuthService) ListUsers(ctx context.Context) ([]*domain.User, error) {
	return s.repo.List(ctx)
}

func trimName(name string) string {
	return strings.TrimSpace(name)
}
