package phoneauth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/phoneauth/users"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type testEnv struct {
	engine *Engine
	mr     *miniredis.Miniredis
	rdb    *redis.Client
	users  *users.MemoryRepository
	clock  *testClock
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1
	return cfg
}

func newTestEnv(t testing.TB, mutate func(*Config)) *testEnv {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		_ = rdb.Close()
		mr.Close()
	})

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	clock := &testClock{now: time.Unix(1_700_000_000, 0)}
	repo := users.NewMemoryRepository()

	engine, err := New().
		WithConfig(cfg).
		WithRedis(rdb).
		WithUserStore(repo).
		WithClock(clock.Now).
		Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)

	return &testEnv{engine: engine, mr: mr, rdb: rdb, users: repo, clock: clock}
}

// refreshKeys returns the stored refresh records, skipping limiter counters.
func (env *testEnv) refreshKeys() []string {
	var out []string
	for _, k := range env.mr.Keys() {
		if strings.Contains(k, ",") {
			out = append(out, k)
		}
	}
	return out
}

func cookieFrom(t testing.TB, rec *httptest.ResponseRecorder, name string) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	t.Fatalf("cookie %q not set", name)
	return nil
}

func requestWith(cookies map[string]string, bearer string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for name, value := range cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	if bearer != "" {
		r.Header.Set("Authorization", "Bearer "+bearer)
	}
	return r
}
