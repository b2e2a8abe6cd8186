package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultRevocationTTL bounds how long a blacklist entry is retained when the caller
// does not configure one. It must not be shorter than the longest access lifetime.
const DefaultRevocationTTL = 15*time.Minute + time.Minute

// RevocationStore is a Redis blacklist of access token ids.
type RevocationStore struct {
	redis  redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRevocationStore creates a [RevocationStore]. Keys are written as prefix:jti and
// expire after ttl. A zero ttl selects [DefaultRevocationTTL].
func NewRevocationStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RevocationStore {
	if ttl <= 0 {
		ttl = DefaultRevocationTTL
	}
	return &RevocationStore{
		redis:  client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *RevocationStore) key(tokenID string) string {
	return s.prefix + ":" + tokenID
}

// IsRevoked reports whether tokenID has been blacklisted.
func (s *RevocationStore) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	n, err := s.redis.Exists(ctx, s.key(tokenID)).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return n > 0, nil
}

// Revoke blacklists tokenID. Revoking an id twice is the same as revoking it once;
// the retention window is refreshed on each call.
func (s *RevocationStore) Revoke(ctx context.Context, tokenID string) error {
	if err := s.redis.Set(ctx, s.key(tokenID), "", s.ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// TTL returns the retention window applied to new entries.
func (s *RevocationStore) TTL() time.Duration { return s.ttl }

// Close releases the underlying client. Adapters sharing one client must close it once.
func (s *RevocationStore) Close() error {
	return s.redis.Close()
}
