package auth

import (
	"context"
	"fmt"
	"time"

	"github.com/coder/quartz"
	"github.com/redis/go-redis/v9"
)

// RevocationStore keeps revoked token ids in Redis until they expire.
type RevocationStore struct {
	client *redis.Client
	prefix string
	clock  quartz.Clock
}

// NewRevocationStore constructs a RevocationStore.
func NewRevocationStore(client *redis.Client, prefix string, clock quartz.Clock) *RevocationStore {
	if prefix == "" {
		prefix = "classhub:revoked:"
	}
	if clock == nil {
		clock = quartz.NewReal()
	}
	return &RevocationStore{client: client, prefix: prefix, clock: clock}
}

// Revoke marks tokenID revoked until the token would have expired.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error {
	ttl := expiresAt.Sub(s.clock.Now())
	if ttl <= 0 {
		return nil
	}
	if err := s.client.Set(ctx, s.prefix+tokenID, "1", ttl).Err(); err != nil {
		return fmt.Errorf("auth: revoke token: %w", err)
	}
	return nil
}

// IsRevoked reports whether tokenID was revoked.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.client.Exists(ctx, s.prefix+tokenID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
