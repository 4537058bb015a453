package phoneauth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/MrEthical07/phoneauth/internal/flows"
	"github.com/MrEthical07/phoneauth/internal/logging"
	"github.com/MrEthical07/phoneauth/internal/rate"
	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/password"
	"github.com/MrEthical07/phoneauth/session"
	"github.com/MrEthical07/phoneauth/users"
	"github.com/redis/go-redis/v9"
)

// Builder assembles an [Engine]. A Builder is single-use: the second call to
// Build fails.
type Builder struct {
	config Config
	redis  redis.UniversalClient

	userStore users.Repository
	logger    *slog.Logger
	clock     func() time.Time

	built bool
}

// New returns a Builder seeded with [DefaultConfig].
func New() *Builder {
	return &Builder{
		config: DefaultConfig(),
	}
}

// WithConfig replaces the whole configuration. cfg is copied.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cloneConfig(cfg)
	return b
}

// WithRedis sets the client backing refresh records and sign-in counters.
// The caller owns the client and closes it after the Engine is done.
func (b *Builder) WithRedis(client redis.UniversalClient) *Builder {
	b.redis = client
	return b
}

// WithUserStore sets the account repository. Without one, the account
// operations return ErrEngineNotReady while the token operations still work.
func (b *Builder) WithUserStore(store users.Repository) *Builder {
	b.userStore = store
	return b
}

// WithLogger sets the structured logger. Nil discards output.
func (b *Builder) WithLogger(l *slog.Logger) *Builder {
	b.logger = l
	return b
}

// WithClock overrides time.Now for token expiry and access checks.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.clock = now
	return b
}

// WithMetricsEnabled toggles the in-process counters.
func (b *Builder) WithMetricsEnabled(enabled bool) *Builder {
	b.config.Metrics.Enabled = enabled
	return b
}

// WithLatencyHistograms toggles the latency histograms.
func (b *Builder) WithLatencyHistograms(enabled bool) *Builder {
	b.config.Metrics.EnableLatencyHistograms = enabled
	return b
}

// Build validates the configuration and wires every component.
func (b *Builder) Build() (*Engine, error) {
	if b.built {
		return nil, errors.New("builder already used")
	}

	cfg := cloneConfig(b.config)

	if b.redis == nil {
		return nil, errors.New("redis client required")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	// -------- TOKEN CODEC --------
	codec, err := jwt.NewCodec(jwt.Config{
		Secret:    cfg.JWT.Secret,
		Algorithm: jwt.Algorithm(strings.ToUpper(cfg.JWT.Algorithm)),
	})
	if err != nil {
		return nil, err
	}

	// -------- PASSWORD HASHER --------
	hasher, err := password.New(password.Config{
		Scheme:           cfg.Password.Scheme,
		Memory:           cfg.Password.Memory,
		Time:             cfg.Password.Time,
		Parallelism:      cfg.Password.Parallelism,
		SaltLength:       cfg.Password.SaltLength,
		KeyLength:        cfg.Password.KeyLength,
		MaxPasswordBytes: cfg.Password.MaxPasswordBytes,
	})
	if err != nil {
		return nil, err
	}

	// -------- SESSION STORE --------
	store := session.NewStore(b.redis, cfg.Session.RedisPrefix)

	// -------- SIGN-IN LIMITER --------
	limiter := rate.New(b.redis, rate.Config{
		Enabled:           cfg.Security.EnableSignInThrottle,
		EnableIPThrottle:  cfg.Security.EnableIPThrottle,
		MaxSignInAttempts: cfg.Security.MaxSignInAttempts,
		Cooldown:          cfg.Security.SignInCooldown,
		KeyPrefix:         cfg.Session.RedisPrefix + cfg.Security.RateLimitPrefix,
	})

	logger := logging.NewSlogLogger(b.logger).With("component", "phoneauth")

	clock := b.clock
	if clock == nil {
		clock = time.Now
	}

	engine := &Engine{
		config:       cfg,
		sessionStore: store,
		rateLimiter:  limiter,
		codec:        codec,
		passwordHash: hasher,
		userStore:    b.userStore,
		metrics:      NewMetrics(cfg.Metrics),
		logger:       logger,
		clock:        clock,
	}

	issue := flows.IssueDeps{
		SessionStore: store,
		EncodeAccess: codec.Encode,
		Now:          clock,
		AccessTTL:    cfg.JWT.AccessTTL,
		RefreshTTL:   cfg.JWT.RefreshTTL,
	}
	engine.flowDeps = flows.Deps{
		Access: flows.AccessDeps{
			DecodeAccess: codec.Decode,
			Now:          clock,
		},
		Issue: issue,
		Refresh: flows.RefreshDeps{
			SessionStore: store,
			Issue:        issue,
		},
		SignOut: flows.SignOutDeps{
			SessionStore: store,
		},
		SignUp: flows.SignUpDeps{
			Users:        b.userStore,
			HashPassword: hasher.Hash,
			AllowedRoles: cfg.Account.SignUpRoles,
		},
		SignIn: flows.SignInDeps{
			Users:          b.userStore,
			VerifyPassword: hasher.Verify,
			Limiter:        limiter,
			RateLimited:    rate.ErrRateLimited,
			Warn: func(msg string, args ...any) {
				logger.Warn(context.Background(), msg, args...)
			},
		},
	}

	b.built = true
	return engine, nil
}
