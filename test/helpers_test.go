//go:build integration
// +build integration

package test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/users"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

// redisMode describes which Redis backend a suite is running against.
type redisMode struct {
	name  string
	setup func(t *testing.T) redis.UniversalClient
}

// redisModes returns the backends to test. miniredis is always available;
// a real standalone Redis is added when REDIS_ADDR is set.
func redisModes(t *testing.T) []redisMode {
	t.Helper()
	modes := []redisMode{
		{
			name: "miniredis",
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				mr := miniredis.RunT(t)
				rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
				t.Cleanup(func() { _ = rdb.Close() })
				return rdb
			},
		},
	}

	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		modes = append(modes, redisMode{
			name: "standalone:" + addr,
			setup: func(t *testing.T) redis.UniversalClient {
				t.Helper()
				rdb := redis.NewClient(&redis.Options{Addr: addr})
				ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
				defer cancel()
				if err := rdb.Ping(ctx).Err(); err != nil {
					t.Skipf("cannot connect to Redis at %s: %v", addr, err)
				}
				// Flush the test DB to avoid state leaking between runs.
				rdb.FlushDB(context.Background())
				t.Cleanup(func() { rdb.FlushDB(context.Background()); _ = rdb.Close() })
				return rdb
			},
		})
	}

	return modes
}

func forEachRedis(t *testing.T, fn func(t *testing.T, rdb redis.UniversalClient)) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			fn(t, mode.setup(t))
		})
	}
}

func newEngine(t *testing.T, rdb redis.UniversalClient, repo users.Repository) *phoneauth.Engine {
	t.Helper()

	cfg := phoneauth.DefaultConfig()
	cfg.Password.Memory = 8 * 1024
	cfg.Password.Time = 1
	cfg.Password.Parallelism = 1

	b := phoneauth.New().WithConfig(cfg).WithRedis(rdb)
	if repo != nil {
		b = b.WithUserStore(repo)
	}
	engine, err := b.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func cookieValue(t *testing.T, rec *httptest.ResponseRecorder, name string) string {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	t.Fatalf("cookie %q not set", name)
	return ""
}

func requestWith(cookies map[string]string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	for name, value := range cookies {
		r.AddCookie(&http.Cookie{Name: name, Value: value})
	}
	return r
}

// refreshRecords lists the stored refresh records owned by userID.
func refreshRecords(t *testing.T, rdb redis.UniversalClient, userID string) []string {
	t.Helper()
	keys, err := rdb.Keys(context.Background(), "*,"+userID).Result()
	if err != nil {
		t.Fatalf("KEYS: %v", err)
	}
	out := keys[:0]
	for _, k := range keys {
		if strings.HasSuffix(k, ","+userID) {
			out = append(out, k)
		}
	}
	return out
}
