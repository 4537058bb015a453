package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/phoneauth/internal"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every transport failure returned by the store.
var ErrRedisUnavailable = errors.New("redis unavailable")

// ErrRefreshNotFound is returned when no live refresh record matches. Expired,
// consumed and never-issued tokens are indistinguishable here.
var ErrRefreshNotFound = errors.New("refresh record not found")

const scanBatch = 100

const popScript = `
local v = redis.call("GET", KEYS[1])
if not v then
  return false
end
redis.call("DEL", KEYS[1])
return v
`

var popLua = redis.NewScript(popScript)

// issueScript evicts every record owned by the user and writes the new one in
// a single step. KEYS is called inside the script, so the store must not be
// a Redis Cluster and should live on a dedicated database index.
const issueScript = `
local owned = redis.call("KEYS", ARGV[1])
for _, k in ipairs(owned) do
  redis.call("DEL", k)
end
redis.call("SET", KEYS[1], ARGV[2], "PX", ARGV[3])
return #owned
`

var issueLua = redis.NewScript(issueScript)

// Store is the Redis-backed session store. The client is owned by the
// caller; Store never closes it.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore wraps client. Every key is written as prefix+key.
func NewStore(client redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

// Set stores value under key with ttl. A non-positive ttl stores without expiry.
func (s *Store) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	if err := s.redis.Set(ctx, s.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Get returns the value under key and whether it existed.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := s.redis.Get(ctx, s.key(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

// Delete removes key. Deleting a missing key is not an error.
func (s *Store) Delete(ctx context.Context, key string) error {
	if err := s.redis.Del(ctx, s.key(key)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Pop atomically reads and deletes key. Of several concurrent callers for
// the same key at most one observes ok == true.
func (s *Store) Pop(ctx context.Context, key string) (string, bool, error) {
	v, err := popLua.Run(ctx, s.redis, []string{s.key(key)}).Text()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return v, true, nil
}

// Keys returns every key matching a glob pattern, without the store prefix.
// It walks the keyspace with SCAN, so results may include keys that expire
// before the caller uses them.
func (s *Store) Keys(ctx context.Context, pattern string) ([]string, error) {
	var (
		cursor uint64
		out    []string
	)
	match := escapeGlob(s.prefix) + pattern

	for {
		keys, next, err := s.redis.Scan(ctx, cursor, match, scanBatch).Result()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
		}
		for _, k := range keys {
			out = append(out, strings.TrimPrefix(k, s.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return out, nil
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// IssueRefresh mints a refresh token for userID, removes every other record
// the user owns and stores the new one with ttl, all in one script call.
// It returns the token and the number of evicted records.
func (s *Store) IssueRefresh(ctx context.Context, userID, role string, ttl time.Duration) (string, int, error) {
	if userID == "" {
		return "", 0, errors.New("refresh record requires a user id")
	}
	if ttl <= 0 {
		return "", 0, errors.New("refresh ttl must be > 0")
	}

	token := internal.NewRefreshToken()
	evicted, err := issueLua.Run(
		ctx,
		s.redis,
		[]string{s.key(RecordKey(token, userID))},
		escapeGlob(s.prefix)+userPattern(userID),
		role,
		ttl.Milliseconds(),
	).Int()
	if err != nil {
		return "", 0, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}

	return token, evicted, nil
}

// PopRefreshByToken consumes the record for token, whichever user owns it.
func (s *Store) PopRefreshByToken(ctx context.Context, token string) (*RefreshRecord, error) {
	if token == "" {
		return nil, ErrRefreshNotFound
	}
	return s.popFirst(ctx, tokenPattern(token))
}

// PopRefreshByUser consumes the live record owned by userID.
func (s *Store) PopRefreshByUser(ctx context.Context, userID string) (*RefreshRecord, error) {
	if userID == "" {
		return nil, ErrRefreshNotFound
	}
	return s.popFirst(ctx, userPattern(userID))
}

func (s *Store) popFirst(ctx context.Context, pattern string) (*RefreshRecord, error) {
	keys, err := s.Keys(ctx, pattern)
	if err != nil {
		return nil, err
	}

	for _, key := range keys {
		token, userID, ok := ParseRecordKey(key)
		if !ok {
			continue
		}
		role, found, err := s.Pop(ctx, key)
		if err != nil {
			return nil, err
		}
		if !found {
			// Lost the race to another consumer or the TTL fired between SCAN and Pop.
			continue
		}
		return &RefreshRecord{Token: token, UserID: userID, Role: role}, nil
	}

	return nil, ErrRefreshNotFound
}

func (s *Store) key(k string) string {
	return s.prefix + k
}
