package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationCache records retired session IDs so the token validator can
// reject a revoked token before touching the database. Entries expire with
// the session they shadow; the database stays the source of truth.
type RevocationCache struct {
	client *redis.Client
}

// NewRevocationCache creates a RevocationCache backed by the given client
func NewRevocationCache(client *redis.Client) *RevocationCache {
	return &RevocationCache{client: client}
}

func revocationKey(sessionID uint) string {
	return fmt.Sprintf("revoked:session:%d", sessionID)
}

// RevokeSession marks a session as revoked until ttl elapses
func (c *RevocationCache) RevokeSession(ctx context.Context, sessionID uint, ttl time.Duration) error {
	return c.client.Set(ctx, revocationKey(sessionID), "1", ttl).Err()
}

// IsRevoked reports whether the session has a revocation entry. Errors are
// returned so the caller can decide to fall through to the database check.
func (c *RevocationCache) IsRevoked(ctx context.Context, sessionID uint) (bool, error) {
	n, err := c.client.Exists(ctx, revocationKey(sessionID)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
