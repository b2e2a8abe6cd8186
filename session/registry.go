package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RefreshRegistry tracks the live refresh token ids of each subject as a Redis set.
//
// A subject may hold any number of concurrent sessions; each login or rotation adds
// one member. The set key expires refreshTTL after the most recent Add, so a subject
// that stops refreshing eventually leaves nothing behind.
type RefreshRegistry struct {
	redis      redis.UniversalClient
	prefix     string
	refreshTTL time.Duration
}

// NewRefreshRegistry creates a [RefreshRegistry]. A non-positive refreshTTL disables
// key expiry.
func NewRefreshRegistry(client redis.UniversalClient, prefix string, refreshTTL time.Duration) *RefreshRegistry {
	return &RefreshRegistry{
		redis:      client,
		prefix:     prefix,
		refreshTTL: refreshTTL,
	}
}

func (r *RefreshRegistry) key(subjectID string) string {
	return r.prefix + ":" + subjectID
}

// Add records refreshID as live for subjectID.
//
//	Performance: 1 round trip (MULTI SADD EXPIRE EXEC).
func (r *RefreshRegistry) Add(ctx context.Context, subjectID, refreshID string) error {
	key := r.key(subjectID)
	_, err := r.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, key, refreshID)
		if r.refreshTTL > 0 {
			pipe.Expire(ctx, key, r.refreshTTL)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Remove drops refreshID from the subject's live set. Removing an absent id is a no-op.
func (r *RefreshRegistry) Remove(ctx context.Context, subjectID, refreshID string) error {
	if err := r.redis.SRem(ctx, r.key(subjectID), refreshID).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Contains reports whether refreshID is live for subjectID.
func (r *RefreshRegistry) Contains(ctx context.Context, subjectID, refreshID string) (bool, error) {
	ok, err := r.redis.SIsMember(ctx, r.key(subjectID), refreshID).Result()
	if err != nil {
		return false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ok, nil
}

// Members returns every live refresh id for subjectID. Order is unspecified.
func (r *RefreshRegistry) Members(ctx context.Context, subjectID string) ([]string, error) {
	ids, err := r.redis.SMembers(ctx, r.key(subjectID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return ids, nil
}

// Count returns the number of live refresh ids for subjectID.
func (r *RefreshRegistry) Count(ctx context.Context, subjectID string) (int, error) {
	n, err := r.redis.SCard(ctx, r.key(subjectID)).Result()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return int(n), nil
}

// Clear removes every live refresh id for subjectID.
func (r *RefreshRegistry) Clear(ctx context.Context, subjectID string) error {
	if err := r.redis.Del(ctx, r.key(subjectID)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping returns a point-in-time Redis availability check and latency.
func (r *RefreshRegistry) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := r.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

// Close releases the underlying client. Adapters sharing one client must close it once.
func (r *RefreshRegistry) Close() error {
	return r.redis.Close()
}
