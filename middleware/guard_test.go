package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity/sqlite"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestEngine(t *testing.T) (*goSession.Engine, *miniredis.Miniredis) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start failed: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	store, err := sqlite.Open(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := goSession.DefaultConfig()
	cfg.JWT.Secret = []byte("middleware-test-secret-middleware")
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	engine, err := goSession.New().WithConfig(cfg).WithRedis(rdb).WithIdentityStore(store).Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine, mr
}

func loginAlice(t *testing.T, engine *goSession.Engine) goSession.TokenPair {
	t.Helper()

	ctx := context.Background()
	if _, err := engine.Register(ctx, goSession.RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "secret-pass",
	}); err != nil {
		t.Fatalf("register: %v", err)
	}
	pair, err := engine.Login(ctx, "alice", "secret-pass")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	return pair
}

func serve(h http.Handler, header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestGuardAcceptsValidToken(t *testing.T) {
	engine, _ := newTestEngine(t)
	pair := loginAlice(t, engine)

	var seen *goSession.Principal
	h := Guard(engine)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := PrincipalFromContext(r.Context())
		if !ok {
			t.Fatal("expected principal in context")
		}
		seen = p
		w.WriteHeader(http.StatusNoContent)
	}))

	for _, scheme := range []string{"Bearer", "JWT"} {
		rec := serve(h, scheme+" "+pair.AccessToken)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s: expected 204, got %d", scheme, rec.Code)
		}
	}
	if seen == nil || seen.Username != "alice" {
		t.Fatalf("unexpected principal: %+v", seen)
	}
}

func TestGuardRejects(t *testing.T) {
	engine, _ := newTestEngine(t)
	pair := loginAlice(t, engine)

	h := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))

	for _, header := range []string{"", "Bearer", "Basic abc", "Bearer garbage", pair.AccessToken} {
		if rec := serve(h, header); rec.Code != http.StatusUnauthorized {
			t.Fatalf("header %q: expected 401, got %d", header, rec.Code)
		}
	}

	if rec := serve(Guard(nil)(h), "Bearer "+pair.AccessToken); rec.Code != http.StatusUnauthorized {
		t.Fatalf("nil engine: expected 401, got %d", rec.Code)
	}
}

func TestGuardReportsBackendOutage(t *testing.T) {
	engine, mr := newTestEngine(t)
	pair := loginAlice(t, engine)
	mr.Close()

	h := Guard(engine)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("handler must not run")
	}))
	if rec := serve(h, "Bearer "+pair.AccessToken); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestClientIPStripsPort(t *testing.T) {
	var got string
	h := ClientIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = goSession.ClientIPFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "198.51.100.7:5123"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got != "198.51.100.7" {
		t.Fatalf("expected bare IP, got %q", got)
	}
}
