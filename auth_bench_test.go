package goSession

import (
	"context"
	"testing"
)

func BenchmarkValidateAccess(b *testing.B) {
	engine, access, _ := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.ValidateAccess(context.Background(), access); err != nil {
			b.Fatalf("validate failed: %v", err)
		}
	}
}

func BenchmarkRotateByRefresh(b *testing.B) {
	engine, _, refresh := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		pair, err := engine.RotateByRefresh(context.Background(), refresh)
		if err != nil {
			b.Fatalf("rotate failed: %v", err)
		}
		refresh = pair.RefreshToken
	}
}

func BenchmarkLogin(b *testing.B) {
	engine, _, _ := newBenchmarkEngine(b)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := engine.Login(context.Background(), "alice", "correct-password-123"); err != nil {
			b.Fatalf("login failed: %v", err)
		}
	}
}

func newBenchmarkEngine(tb testing.TB) (*Engine, string, string) {
	tb.Helper()

	_, rdb := newTestRedis(tb)
	store := newTestIdentityStore(tb)

	cfg := testConfig()
	cfg.Security.EnableLoginThrottle = false
	cfg.Security.EnableIPThrottle = false

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithIdentityStore(store).
		Build()
	if err != nil {
		tb.Fatalf("build failed: %v", err)
	}
	tb.Cleanup(engine.Close)

	ctx := context.Background()
	if _, err := engine.Register(ctx, RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "correct-password-123",
	}); err != nil {
		tb.Fatalf("register failed: %v", err)
	}
	pair, err := engine.Login(ctx, "alice", "correct-password-123")
	if err != nil {
		tb.Fatalf("login failed: %v", err)
	}
	return engine, pair.AccessToken, pair.RefreshToken
}
