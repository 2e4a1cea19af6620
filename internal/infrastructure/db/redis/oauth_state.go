package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// StateStore keeps single-use OAuth state nonces in Redis.
// Key format: oauthstate:<state>
type StateStore struct {
	client *redis.Client
}

// NewStateStore creates a StateStore wrapping the given Redis client.
func NewStateStore(client *redis.Client) *StateStore {
	return &StateStore{client: client}
}

// Save records a state nonce; it expires after ttl.
func (s *StateStore) Save(ctx context.Context, state string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.key(state), "1", ttl).Err(); err != nil {
		return fmt.Errorf("save oauth state: %w", err)
	}
	return nil
}

// Consume validates and deletes the nonce in a single GETDEL, so a state can
// be redeemed exactly once.
func (s *StateStore) Consume(ctx context.Context, state string) (bool, error) {
	_, err := s.client.GetDel(ctx, s.key(state)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("consume oauth state: %w", err)
	}
	return true, nil
}

func (s *StateStore) key(state string) string {
	return "oauthstate:" + state
}
