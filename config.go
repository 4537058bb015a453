package phoneauth

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/password"
	"github.com/MrEthical07/phoneauth/permission"
)

const (
	// DefaultRefreshTTL is the refresh-token lifetime when none is configured.
	DefaultRefreshTTL = 14 * 24 * time.Hour
	// DefaultAccessTTL is the access-token lifetime when none is configured.
	DefaultAccessTTL = 2 * time.Minute
	// DefaultSecret is the development signing secret. Validate rejects it
	// when Security.ProductionMode is set.
	DefaultSecret = "secret"
)

// Config defines a public type used by phoneauth APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	JWT      JWTConfig
	Cookie   CookieConfig
	Session  SessionConfig
	Password PasswordConfig
	Account  AccountConfig
	Security SecurityConfig
	Metrics  MetricsConfig
}

/*
====================================
JWT CONFIG
====================================
*/

// JWTConfig holds the shared signing secret and token lifetimes.
type JWTConfig struct {
	Secret     []byte
	Algorithm  string // "HS256" (default), "HS384", "HS512"
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

/*
====================================
COOKIE CONFIG
====================================
*/

// CookieConfig controls both token cookies. Every attribute is independent.
type CookieConfig struct {
	AccessName  string
	RefreshName string
	Path        string
	Domain      string
	SameSite    http.SameSite
	Secure      bool
	HTTPOnly    bool
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig controls the Redis keyspace for refresh records.
type SessionConfig struct {
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects the hashing scheme and its cost.
type PasswordConfig struct {
	Scheme           string // "argon2id" (default) or "sha256"
	Memory           uint32 // in KB
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

/*
====================================
ACCOUNT CONFIG
====================================
*/

// AccountConfig controls self-service registration.
type AccountConfig struct {
	// SignUpRoles lists the roles a caller may request at sign-up.
	SignUpRoles []permission.Role
	DefaultRole permission.Role
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds sign-in throttling and production guards.
type SecurityConfig struct {
	ProductionMode       bool
	EnableSignInThrottle bool
	EnableIPThrottle     bool
	MaxSignInAttempts    int
	SignInCooldown       time.Duration
	RateLimitPrefix      string
}

/*
====================================
METRICS CONFIG
====================================
*/

// MetricsConfig toggles in-process counters.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the documented defaults: HS256 with the development
// secret, 14 day refresh and 2 minute access lifetimes, cookies named
// "refresh" and "access" with SameSite=None and neither Secure nor HttpOnly.
func DefaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			Secret:     []byte(DefaultSecret),
			Algorithm:  string(jwt.HS256),
			AccessTTL:  DefaultAccessTTL,
			RefreshTTL: DefaultRefreshTTL,
		},
		Cookie: CookieConfig{
			AccessName:  "access",
			RefreshName: "refresh",
			Path:        "/",
			SameSite:    http.SameSiteNoneMode,
			Secure:      false,
			HTTPOnly:    false,
		},
		Session: SessionConfig{
			RedisPrefix: "",
		},
		Password: PasswordConfig{
			Scheme:           password.SchemeArgon2id,
			Memory:           65536,
			Time:             3,
			Parallelism:      2,
			SaltLength:       16,
			KeyLength:        32,
			MaxPasswordBytes: password.DefaultMaxPasswordBytes,
		},
		Account: AccountConfig{
			SignUpRoles: []permission.Role{permission.RoleClient},
			DefaultRole: permission.RoleClient,
		},
		Security: SecurityConfig{
			ProductionMode:       false,
			EnableSignInThrottle: true,
			EnableIPThrottle:     false,
			MaxSignInAttempts:    5,
			SignInCooldown:       15 * time.Minute,
			RateLimitPrefix:      "rl:",
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: false,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.JWT.Secret = cloneBytes(cfg.JWT.Secret)
	if cfg.Account.SignUpRoles != nil {
		out.Account.SignUpRoles = append([]permission.Role(nil), cfg.Account.SignUpRoles...)
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

/*
====================================
VALIDATION
====================================
*/

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	// JWT
	if c.JWT.AccessTTL <= 0 {
		return errors.New("JWT AccessTTL must be > 0")
	}
	if c.JWT.RefreshTTL <= 0 {
		return errors.New("JWT RefreshTTL must be > 0")
	}
	if c.JWT.RefreshTTL < c.JWT.AccessTTL {
		return errors.New("JWT RefreshTTL must be >= AccessTTL")
	}
	if len(c.JWT.Secret) == 0 {
		return errors.New("JWT Secret must not be empty")
	}
	switch jwt.Algorithm(strings.ToUpper(c.JWT.Algorithm)) {
	case "", jwt.HS256, jwt.HS384, jwt.HS512:
	default:
		return errors.New("unsupported JWT algorithm")
	}

	// Cookie
	if c.Cookie.AccessName == "" || c.Cookie.RefreshName == "" {
		return errors.New("Cookie names must not be empty")
	}
	if c.Cookie.AccessName == c.Cookie.RefreshName {
		return errors.New("Cookie AccessName and RefreshName must differ")
	}
	if c.Cookie.SameSite == http.SameSiteNoneMode && c.Security.ProductionMode && !c.Cookie.Secure {
		return errors.New("SameSite=None cookies must be Secure in production mode")
	}

	// Session
	if strings.ContainsAny(c.Session.RedisPrefix, ",") {
		return errors.New("Session RedisPrefix must not contain ','")
	}

	// Password
	switch strings.ToLower(c.Password.Scheme) {
	case "", password.SchemeArgon2id:
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.SaltLength < 16 {
			return errors.New("Password SaltLength must be >= 16")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	case password.SchemeSHA256:
		if c.Security.ProductionMode {
			return errors.New("Password Scheme sha256 is not allowed in production mode")
		}
	default:
		return errors.New("unsupported Password Scheme")
	}

	// Account
	if len(c.Account.SignUpRoles) == 0 {
		return errors.New("Account SignUpRoles must not be empty")
	}
	for _, r := range c.Account.SignUpRoles {
		if !r.Valid() {
			return errors.New("Account SignUpRoles contains an unknown role")
		}
	}
	if c.Account.DefaultRole != "" && !permission.Allowed(c.Account.DefaultRole, c.Account.SignUpRoles) {
		return errors.New("Account DefaultRole must be one of SignUpRoles")
	}

	// Security
	if c.Security.EnableSignInThrottle {
		if c.Security.MaxSignInAttempts <= 0 {
			return errors.New("Security MaxSignInAttempts must be > 0")
		}
		if c.Security.SignInCooldown <= 0 {
			return errors.New("Security SignInCooldown must be > 0")
		}
	}
	if c.Security.ProductionMode && string(c.JWT.Secret) == DefaultSecret {
		return errors.New("JWT Secret must be changed from the development default in production mode")
	}

	return nil
}
