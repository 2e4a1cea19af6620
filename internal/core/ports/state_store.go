package ports

import (
	"context"
	"time"
)

// StateStore holds single-use OAuth state nonces between the authorization
// redirect and the provider callback.
type StateStore interface {
	Save(ctx context.Context, state string, ttl time.Duration) error
	// Consume validates and deletes the state in one step, so a nonce can
	// never be replayed.
	Consume(ctx context.Context, state string) (bool, error)
}
