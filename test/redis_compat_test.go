//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"testing"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// TestRedisCompat_KeyLayout checks the blacklist and registry keys other
// services sharing the Redis instance read: revoked:<jti> and refresh:<subject>.
func TestRedisCompat_KeyLayout(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			engine := newIntegrationEngine(t, rdb)
			ctx := context.Background()
			p, pair := registerAndIssue(t, engine, "compat")
			claims := decodeAccess(t, pair.AccessToken)

			members, err := rdb.SMembers(ctx, "refresh:"+p.ID).Result()
			if err != nil {
				t.Fatalf("smembers: %v", err)
			}
			if len(members) != 1 || members[0] != claims.RefreshID {
				t.Fatalf("registry members = %v, want [%s]", members, claims.RefreshID)
			}
			ttl, err := rdb.TTL(ctx, "refresh:"+p.ID).Result()
			if err != nil {
				t.Fatalf("ttl: %v", err)
			}
			if ttl <= 29*24*time.Hour || ttl > 30*24*time.Hour {
				t.Fatalf("registry ttl = %v, want about 30 days", ttl)
			}

			if err := engine.RevokeCurrent(ctx, pair.AccessToken); err != nil {
				t.Fatalf("revoke current: %v", err)
			}
			n, err := rdb.Exists(ctx, "revoked:"+claims.TokenID).Result()
			if err != nil {
				t.Fatalf("exists: %v", err)
			}
			if n != 1 {
				t.Fatal("expected blacklist entry for revoked access id")
			}
			ttl, err = rdb.TTL(ctx, "revoked:"+claims.TokenID).Result()
			if err != nil {
				t.Fatalf("ttl: %v", err)
			}
			if ttl < 15*time.Minute || ttl > 16*time.Minute {
				t.Fatalf("blacklist ttl = %v, want access lifetime plus margin", ttl)
			}
		})
	}
}

// TestRedisCompat_SessionLifecycle runs login, rotation and logout-all on each backend.
func TestRedisCompat_SessionLifecycle(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			engine := newIntegrationEngine(t, rdb)
			ctx := context.Background()
			p, first := registerAndIssue(t, engine, "lifecycle")

			second, err := engine.IssueTokenPair(ctx, *p)
			if err != nil {
				t.Fatalf("second pair: %v", err)
			}
			if n, err := engine.ActiveSessionCount(ctx, p.ID); err != nil || n != 2 {
				t.Fatalf("session count = %d, %v; want 2", n, err)
			}

			rotated, err := engine.RotateByRefresh(ctx, first.RefreshToken)
			if err != nil {
				t.Fatalf("rotate: %v", err)
			}
			if _, err := engine.RotateByRefresh(ctx, first.RefreshToken); !errors.Is(err, goSession.ErrUnauthorized) {
				t.Fatalf("expected replayed refresh to be rejected, got %v", err)
			}
			if _, err := engine.ValidateAccess(ctx, first.AccessToken); !errors.Is(err, goSession.ErrUnauthorized) {
				t.Fatalf("expected orphaned access to be rejected, got %v", err)
			}

			if err := engine.RevokeAll(ctx, rotated.AccessToken); err != nil {
				t.Fatalf("revoke all: %v", err)
			}
			if _, err := engine.ValidateAccess(ctx, second.AccessToken); !errors.Is(err, goSession.ErrUnauthorized) {
				t.Fatalf("expected other session access to be orphaned, got %v", err)
			}
			if n, err := engine.ActiveSessionCount(ctx, p.ID); err != nil || n != 0 {
				t.Fatalf("session count after revoke all = %d, %v; want 0", n, err)
			}
		})
	}
}

// TestRedisCompat_RevokeIdempotent checks a second logout of the same session is
// rejected without disturbing the blacklist entry.
func TestRedisCompat_RevokeIdempotent(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			engine := newIntegrationEngine(t, rdb)
			ctx := context.Background()
			_, pair := registerAndIssue(t, engine, "idempotent")
			claims := decodeAccess(t, pair.AccessToken)

			if err := engine.RevokeCurrent(ctx, pair.AccessToken); err != nil {
				t.Fatalf("first revoke: %v", err)
			}
			if err := engine.RevokeCurrent(ctx, pair.AccessToken); !errors.Is(err, goSession.ErrUnauthorized) {
				t.Fatalf("expected second revoke to be unauthorized, got %v", err)
			}
			if n, _ := rdb.Exists(ctx, "revoked:"+claims.TokenID).Result(); n != 1 {
				t.Fatal("blacklist entry must survive a repeated logout")
			}
		})
	}
}
