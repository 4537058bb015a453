// Command phoneauth-loadtest measures access checks and refresh rotation
// against a Redis instance, and verifies that a refresh token presented
// concurrently is redeemed exactly once.
package main

import (
	"context"
	"flag"
	"fmt"
	"math/rand"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type sessionState struct {
	userID  string
	refresh string
	access  string
	mu      sync.Mutex
}

func main() {
	var (
		sessions    = flag.Int("sessions", 2000, "number of sessions to seed")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "operations per phase (access + refresh)")
		racers      = flag.Int("racers", 32, "goroutines presenting the same refresh token")
		races       = flag.Int("races", 200, "number of single-token races")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "lt:", "session key prefix")
	)
	flag.Parse()

	if *sessions <= 0 || *concurrency <= 0 || *ops <= 0 || *racers <= 0 || *races < 0 {
		fmt.Fprintln(os.Stderr, "sessions, concurrency, ops and racers must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{Addrs: []string{addr}})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	cfg := phoneauth.DefaultConfig()
	cfg.Session.RedisPrefix = *prefix
	engine, err := phoneauth.New().WithConfig(cfg).WithRedis(client).Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "engine: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	states := make([]sessionState, *sessions)
	fmt.Printf("seeding %d sessions...\n", *sessions)
	startSeed := time.Now()
	for i := range states {
		states[i].userID = fmt.Sprintf("user-%d", i)
		refresh, access, err := issue(ctx, engine, states[i].userID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "seed failed: %v\n", err)
			os.Exit(1)
		}
		states[i].refresh, states[i].access = refresh, access
	}
	fmt.Printf("seeded in %s\n", time.Since(startSeed).Round(time.Millisecond))

	accessStats := runAccessPhase(engine, states, *ops, *concurrency)
	refreshStats := runRefreshPhase(ctx, engine, states, *ops, *concurrency)
	race := runRacePhase(ctx, engine, *races, *racers)

	fmt.Println("---- results ----")
	printStats("access", accessStats)
	printStats("refresh", refreshStats)
	fmt.Printf("race: rounds=%d racers=%d single-winner=%d violations=%d\n",
		race.rounds, *racers, race.singleWinner, race.violations)

	if race.violations > 0 {
		os.Exit(1)
	}
}

func issue(ctx context.Context, engine *phoneauth.Engine, userID string) (refresh, access string, err error) {
	rec := httptest.NewRecorder()
	if _, err := engine.CreateTokens(ctx, rec, userID, permission.RoleClient); err != nil {
		return "", "", err
	}
	return cookieValue(rec, "refresh"), cookieValue(rec, "access"), nil
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func runAccessPhase(engine *phoneauth.Engine, states []sessionState, ops, concurrency int) phaseStats {
	allowed := permission.AtLeast(permission.RoleClient)
	return runPhase(ops, concurrency, 7919, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		access := state.access
		state.mu.Unlock()
		_, err := engine.CheckAccess(allowed, phoneauth.Credentials{Cookie: access})
		return err
	})
}

func runRefreshPhase(ctx context.Context, engine *phoneauth.Engine, states []sessionState, ops, concurrency int) phaseStats {
	return runPhase(ops, concurrency, 6151, func(r *rand.Rand, _ int) error {
		state := &states[r.Intn(len(states))]
		state.mu.Lock()
		defer state.mu.Unlock()

		rec := httptest.NewRecorder()
		if _, err := engine.UpdateTokens(ctx, rec, phoneauth.Credentials{Cookie: state.refresh}); err != nil {
			return err
		}
		state.refresh = cookieValue(rec, "refresh")
		state.access = cookieValue(rec, "access")
		return nil
	})
}

// runPhase spreads ops calls of fn across concurrency workers and records
// per-call latency.
func runPhase(ops, concurrency int, seed int64, fn func(r *rand.Rand, i int) error) phaseStats {
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
			r := rand.New(rand.NewSource(time.Now().UnixNano() + int64(worker)*seed))
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				t0 := time.Now()
				err := fn(r, i)
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
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

type raceStats struct {
	rounds       int
	singleWinner int
	violations   int
}

// runRacePhase presents one refresh token from racers goroutines at once.
// Exactly one of them must rotate it.
func runRacePhase(ctx context.Context, engine *phoneauth.Engine, rounds, racers int) raceStats {
	var out raceStats
	for round := 0; round < rounds; round++ {
		refresh, _, err := issue(ctx, engine, fmt.Sprintf("racer-%d", round))
		if err != nil {
			out.violations++
			continue
		}

		var (
			wg      sync.WaitGroup
			winners int64
			gate    = make(chan struct{})
		)
		for i := 0; i < racers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				<-gate
				if _, err := engine.UpdateTokens(ctx, nil, phoneauth.Credentials{Cookie: refresh}); err == nil {
					atomic.AddInt64(&winners, 1)
				}
			}()
		}
		close(gate)
		wg.Wait()

		out.rounds++
		if winners == 1 {
			out.singleWinner++
		} else {
			out.violations++
		}
	}
	return out
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}
