package ports

import (
	"context"

	"github.com/launchbase/accounts-api/internal/core/domain"
)

// UserRepository defines the persistence interface for the credential store.
// The store's unique index on email is the final arbiter for concurrent
// registrations; Create and Update surface a violation as domain.ErrEmailTaken.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	FindByID(ctx context.Context, id string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
}
