// Command gosession-loadtest drives a goSession engine through validate and
// rotate phases and prints latency percentiles.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"sync"
	"sync/atomic"
	"time"

	goSession "github.com/MrEthical07/goSession"
	"github.com/MrEthical07/goSession/identity/sqlite"
	"github.com/MrEthical07/goSession/internal/logx"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/pflag"
)

type principalState struct {
	mu   sync.Mutex
	pair goSession.TokenPair
}

type options struct {
	principals  int
	concurrency int
	ops         int
	redisAddr   string
	dsn         string
	logLevel    string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "gosession-loadtest: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	var opts options
	flagSet := pflag.NewFlagSet("gosession-loadtest", pflag.ContinueOnError)
	flagSet.IntVar(&opts.principals, "principals", 1000, "number of principals to register and log in")
	flagSet.IntVar(&opts.concurrency, "concurrency", 64, "number of concurrent workers")
	flagSet.IntVar(&opts.ops, "ops", 50000, "operations per phase (validate, rotate)")
	flagSet.StringVar(&opts.redisAddr, "redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
	flagSet.StringVar(&opts.dsn, "db", ":memory:", "sqlite DSN for the identity store")
	flagSet.StringVar(&opts.logLevel, "log-level", "warn", "engine log level")
	if err := flagSet.Parse(args); err != nil {
		return err
	}

	if opts.principals <= 0 || opts.concurrency <= 0 || opts.ops <= 0 {
		return errors.New("principals, concurrency, and ops must be > 0")
	}

	ctx := context.Background()
	logger := logx.New(logx.Config{Service: "gosession-loadtest", Level: opts.logLevel, Format: "text", Output: os.Stderr})

	client, cleanup, err := openRedis(opts.redisAddr)
	if err != nil {
		return err
	}
	defer cleanup()

	store, err := sqlite.Open(ctx, opts.dsn)
	if err != nil {
		return fmt.Errorf("open identity store: %w", err)
	}
	defer store.Close()

	engine, err := buildEngine(client, store, logger)
	if err != nil {
		return err
	}
	defer engine.Close()

	fmt.Printf("seeding %d principals...\n", opts.principals)
	startSeed := time.Now()
	states, err := seed(ctx, engine, opts.principals)
	if err != nil {
		return err
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	validateStats := runPhase(states, opts.ops, opts.concurrency, 7919, func(s *principalState) error {
		s.mu.Lock()
		access := s.pair.AccessToken
		s.mu.Unlock()
		_, err := engine.ValidateAccess(ctx, access)
		return err
	})
	rotateStats := runPhase(states, opts.ops, opts.concurrency, 6151, func(s *principalState) error {
		s.mu.Lock()
		defer s.mu.Unlock()
		pair, err := engine.RotateByRefresh(ctx, s.pair.RefreshToken)
		if err == nil {
			s.pair = pair
		}
		return err
	})

	fmt.Println("---- results ----")
	printStats("validate", validateStats)
	printStats("rotate", rotateStats)
	return nil
}

func openRedis(addr string) (redis.UniversalClient, func(), error) {
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}
	if addr != "" {
		client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		fmt.Printf("using redis at %s\n", addr)
		return client, func() { _ = client.Close() }, nil
	}

	mr, err := miniredis.Run()
	if err != nil {
		return nil, nil, fmt.Errorf("start miniredis: %w", err)
	}
	client := redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{mr.Addr()}})
	fmt.Printf("using miniredis at %s\n", mr.Addr())
	return client, func() {
		_ = client.Close()
		mr.Close()
	}, nil
}

func buildEngine(client redis.UniversalClient, store *sqlite.Store, logger *slog.Logger) (*goSession.Engine, error) {
	cfg := goSession.DefaultConfig()
	cfg.JWT.Secret = []byte("gosession-loadtest-secret-not-for-production")
	// Seeding hashes one password per principal; keep argon2 cheap here.
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	cfg.Security.EnableLoginThrottle = false
	cfg.Security.EnableIPThrottle = false

	return goSession.New().
		WithConfig(cfg).
		WithRedis(client).
		WithIdentityStore(store).
		WithLogger(logger).
		Build()
}

func seed(ctx context.Context, engine *goSession.Engine, n int) ([]principalState, error) {
	states := make([]principalState, n)
	for i := 0; i < n; i++ {
		username := fmt.Sprintf("load-%d", i)
		if _, err := engine.Register(ctx, goSession.RegisterRequest{
			Username: username,
			Email:    username + "@example.com",
			Password: "load-test-password",
		}); err != nil {
			return nil, fmt.Errorf("register %s: %w", username, err)
		}
		pair, err := engine.Login(ctx, username, "load-test-password")
		if err != nil {
			return nil, fmt.Errorf("login %s: %w", username, err)
		}
		states[i].pair = pair
	}
	return states, nil
}

func runPhase(states []principalState, ops, concurrency int, seedStep int64, op func(*principalState) error) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seedStep))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				state := &states[r.Intn(len(states))]

				t0 := time.Now()
				err := op(state)
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}

				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}(w)
	}
	wg.Wait()
	return computeStats(time.Since(start), latencies, failures)
}
