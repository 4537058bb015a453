// Package config loads the phoneauth server configuration.
//
// Sources are applied in order, each overriding the previous one:
// built-in defaults, an optional YAML file, a .env file, process
// environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/redis/go-redis/v9"
)

// Config holds every server setting.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Redis    RedisConfig    `yaml:"redis"`
	Postgres PostgresConfig `yaml:"postgres"`
	Log      LogConfig      `yaml:"log"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// HTTPConfig is the listener and CORS setup. Env prefix USERS_.
type HTTPConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Debug           bool          `yaml:"debug"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// AuthConfig mirrors the token and cookie settings. Env prefix AUTH_.
type AuthConfig struct {
	Secret        string        `yaml:"secret"`
	Algorithm     string        `yaml:"algorithm"`
	RefreshTTL    time.Duration `yaml:"refresh_ttl"`
	AccessTTL     time.Duration `yaml:"access_ttl"`
	RefreshKey    string        `yaml:"refresh_key"`
	AccessKey     string        `yaml:"access_key"`
	CookieDomain  string        `yaml:"cookie_domain"`
	SameSite      string        `yaml:"samesite"`
	Secure        bool          `yaml:"secure"`
	HTTPOnly      bool          `yaml:"httponly"`
	PasswordHash  string        `yaml:"password_scheme"`
	SignUpRoles   []string      `yaml:"sign_up_roles"`
	MaxSignIn     int           `yaml:"max_sign_in_attempts"`
	SignInWindow  time.Duration `yaml:"sign_in_cooldown"`
	IPThrottle    bool          `yaml:"ip_throttle"`
	SessionPrefix string        `yaml:"session_prefix"`
}

// RedisConfig addresses the session database. Env prefix REDIS_.
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       int    `yaml:"api_index"`
}

// PostgresConfig addresses the users database. Env prefix POSTGRES_. A
// non-empty DSN wins over the individual fields.
type PostgresConfig struct {
	DSN      string `yaml:"dsn"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DB       string `yaml:"db"`
	SSLMode  string `yaml:"sslmode"`
	Migrate  bool   `yaml:"migrate"`
}

// LogConfig selects the slog handler.
type LogConfig struct {
	Format string `yaml:"format"`
	Level  string `yaml:"level"`
}

// MetricsConfig toggles the engine counters and the /metrics route.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Latency bool `yaml:"latency"`
}

// Default returns the development configuration.
func Default() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Host:            "0.0.0.0",
			Port:            8000,
			Debug:           true,
			CORSOrigins:     []string{"http://localhost:5173"},
			ReadTimeout:     10 * time.Second,
			WriteTimeout:    10 * time.Second,
			ShutdownTimeout: 15 * time.Second,
		},
		Auth: AuthConfig{
			Secret:       phoneauth.DefaultSecret,
			Algorithm:    "HS256",
			RefreshTTL:   phoneauth.DefaultRefreshTTL,
			AccessTTL:    phoneauth.DefaultAccessTTL,
			RefreshKey:   "refresh",
			AccessKey:    "access",
			SameSite:     "none",
			PasswordHash: "argon2id",
			SignUpRoles:  []string{string(permission.RoleClient)},
			MaxSignIn:    5,
			SignInWindow: 15 * time.Minute,
		},
		Redis: RedisConfig{
			Host: "localhost",
			Port: 6379,
			User: "default",
		},
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    5432,
			User:    "postgres",
			DB:      "users",
			SSLMode: "disable",
			Migrate: true,
		},
		Log: LogConfig{
			Format: "json",
			Level:  "info",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Addr is the HTTP listen address.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.HTTP.Host, strconv.Itoa(c.HTTP.Port))
}

// RedisOptions builds go-redis client options.
func (c *Config) RedisOptions() *redis.Options {
	return &redis.Options{
		Addr:     net.JoinHostPort(c.Redis.Host, strconv.Itoa(c.Redis.Port)),
		Username: c.Redis.User,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
	}
}

// PostgresDSN returns the pgx connection string.
func (c *Config) PostgresDSN() string {
	if c.Postgres.DSN != "" {
		return c.Postgres.DSN
	}
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(c.Postgres.User, c.Postgres.Password),
		Host:   net.JoinHostPort(c.Postgres.Host, strconv.Itoa(c.Postgres.Port)),
		Path:   "/" + c.Postgres.DB,
	}
	if c.Postgres.SSLMode != "" {
		u.RawQuery = url.Values{"sslmode": {c.Postgres.SSLMode}}.Encode()
	}
	return u.String()
}

// Engine converts the server settings into a library configuration. Debug
// off turns on the library's production checks.
func (c *Config) Engine() (phoneauth.Config, error) {
	cfg := phoneauth.DefaultConfig()

	cfg.JWT.Secret = []byte(c.Auth.Secret)
	cfg.JWT.Algorithm = c.Auth.Algorithm
	cfg.JWT.RefreshTTL = c.Auth.RefreshTTL
	cfg.JWT.AccessTTL = c.Auth.AccessTTL

	cfg.Cookie.RefreshName = c.Auth.RefreshKey
	cfg.Cookie.AccessName = c.Auth.AccessKey
	cfg.Cookie.Domain = c.Auth.CookieDomain
	cfg.Cookie.Secure = c.Auth.Secure
	cfg.Cookie.HTTPOnly = c.Auth.HTTPOnly
	sameSite, err := ParseSameSite(c.Auth.SameSite)
	if err != nil {
		return phoneauth.Config{}, err
	}
	cfg.Cookie.SameSite = sameSite

	cfg.Session.RedisPrefix = c.Auth.SessionPrefix
	cfg.Password.Scheme = c.Auth.PasswordHash

	roles := make([]permission.Role, 0, len(c.Auth.SignUpRoles))
	for _, name := range c.Auth.SignUpRoles {
		r, err := permission.Parse(name)
		if err != nil {
			return phoneauth.Config{}, fmt.Errorf("auth sign_up_roles: %w", err)
		}
		roles = append(roles, r)
	}
	cfg.Account.SignUpRoles = roles
	if len(roles) > 0 {
		cfg.Account.DefaultRole = roles[0]
	}

	cfg.Security.ProductionMode = !c.HTTP.Debug
	cfg.Security.MaxSignInAttempts = c.Auth.MaxSignIn
	cfg.Security.SignInCooldown = c.Auth.SignInWindow
	cfg.Security.EnableIPThrottle = c.Auth.IPThrottle

	cfg.Metrics.Enabled = c.Metrics.Enabled
	cfg.Metrics.EnableLatencyHistograms = c.Metrics.Latency

	return cfg, cfg.Validate()
}

// Validate checks server-only settings. Library settings are checked by
// Engine.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return errors.New("http port must be in 1..65535")
	}
	if c.Redis.Port <= 0 || c.Redis.Port > 65535 {
		return errors.New("redis port must be in 1..65535")
	}
	if c.Redis.DB < 0 {
		return errors.New("redis api_index must be >= 0")
	}
	if c.Postgres.DSN == "" && (c.Postgres.Host == "" || c.Postgres.DB == "") {
		return errors.New("postgres host and db are required without a dsn")
	}
	if c.HTTP.ShutdownTimeout <= 0 {
		return errors.New("http shutdown_timeout must be > 0")
	}
	return nil
}

// ParseSameSite maps "none", "lax", "strict" (any case) to http.SameSite.
// An empty value means the browser default.
func ParseSameSite(v string) (http.SameSite, error) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "none":
		return http.SameSiteNoneMode, nil
	case "lax":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "":
		return http.SameSiteDefaultMode, nil
	default:
		return 0, fmt.Errorf("unknown samesite mode %q", v)
	}
}
