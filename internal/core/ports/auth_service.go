package ports

import (
	"context"

	"github.com/launchbase/accounts-api/internal/core/domain"
)

type AuthService interface {
	Register(ctx context.Context, name, email, password string) (string, *domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id, name, email string) (*domain.User, error)
	ListUsers(ctx context.Context) ([]*domain.User, error)
}

// FederationService maps an external OAuth profile onto a credential store
// row, creating or re-tagging as needed.
type FederationService interface {
	Resolve(ctx context.Context, provider string, profile domain.ExternalProfile) (*domain.User, error)
}
