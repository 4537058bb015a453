package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Load builds a Config from args (without the program name) and the process
// environment.
//
// Flags:
//
//	-config string   YAML file (default $USERS_CONFIG, skipped when missing)
//	-env-file string .env file (default ".env", skipped when missing)
//	-host string     listen host
//	-port int        listen port
//	-debug           development mode
//	-log-level string
func Load(args []string) (*Config, error) {
	flags := flag.NewFlagSet("phoneauth", flag.ContinueOnError)
	flags.SetOutput(io.Discard)

	configPath := flags.String("config", os.Getenv("USERS_CONFIG"), "path to YAML config")
	envFile := flags.String("env-file", ".env", "path to .env file")
	host := flags.String("host", "", "listen host")
	port := flags.Int("port", 0, "listen port")
	debug := flags.Bool("debug", false, "development mode")
	logLevel := flags.String("log-level", "", "log level (debug, info, warn, error)")

	if err := flags.Parse(args); err != nil {
		return nil, fmt.Errorf("parse flags: %w", err)
	}

	cfg := Default()

	if err := loadYAML(cfg, *configPath); err != nil {
		return nil, err
	}

	if err := loadDotEnv(*envFile); err != nil {
		return nil, err
	}

	if err := applyEnv(cfg, os.LookupEnv); err != nil {
		return nil, err
	}

	flags.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "host":
			cfg.HTTP.Host = *host
		case "port":
			cfg.HTTP.Port = *port
		case "debug":
			cfg.HTTP.Debug = *debug
		case "log-level":
			cfg.Log.Level = *logLevel
		}
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadYAML overlays path onto cfg. A missing file is not an error; a file
// that exists but does not parse is.
func loadYAML(cfg *Config, path string) error {
	if path == "" {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadDotEnv exports the variables of path that are not already set.
func loadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

type envBinding struct {
	key   string
	apply func(string) error
}

func applyEnv(cfg *Config, lookup lookupFunc) error {
	bindings := []envBinding{
		{"USERS_HOST", setString(&cfg.HTTP.Host)},
		{"USERS_PORT", setInt(&cfg.HTTP.Port)},
		{"USERS_DEBUG", setBool(&cfg.HTTP.Debug)},
		{"USERS_CORS_ORIGINS", setList(&cfg.HTTP.CORSOrigins)},
		{"USERS_LOG_LEVEL", setString(&cfg.Log.Level)},
		{"USERS_LOG_FORMAT", setString(&cfg.Log.Format)},
		{"USERS_METRICS", setBool(&cfg.Metrics.Enabled)},

		{"AUTH_SECRET", setString(&cfg.Auth.Secret)},
		{"AUTH_ALGORITHM", setString(&cfg.Auth.Algorithm)},
		{"AUTH_REFRESH_KEY", setString(&cfg.Auth.RefreshKey)},
		{"AUTH_REFRESH_EXP_SEC", setSeconds(&cfg.Auth.RefreshTTL)},
		{"AUTH_ACCESS_KEY", setString(&cfg.Auth.AccessKey)},
		{"AUTH_ACCESS_EXP_SEC", setSeconds(&cfg.Auth.AccessTTL)},
		{"AUTH_COOKIE_DOMAIN", setString(&cfg.Auth.CookieDomain)},
		{"AUTH_SAMESITE", setString(&cfg.Auth.SameSite)},
		{"AUTH_SECURE", setBool(&cfg.Auth.Secure)},
		{"AUTH_HTTPONLY", setBool(&cfg.Auth.HTTPOnly)},
		{"AUTH_PASSWORD_SCHEME", setString(&cfg.Auth.PasswordHash)},
		{"AUTH_SIGN_UP_ROLES", setList(&cfg.Auth.SignUpRoles)},
		{"AUTH_MAX_SIGN_IN_ATTEMPTS", setInt(&cfg.Auth.MaxSignIn)},
		{"AUTH_SIGN_IN_COOLDOWN_SEC", setSeconds(&cfg.Auth.SignInWindow)},
		{"AUTH_IP_THROTTLE", setBool(&cfg.Auth.IPThrottle)},
		{"AUTH_SESSION_PREFIX", setString(&cfg.Auth.SessionPrefix)},

		{"REDIS_HOST", setString(&cfg.Redis.Host)},
		{"REDIS_PORT", setInt(&cfg.Redis.Port)},
		{"REDIS_USER", setString(&cfg.Redis.User)},
		{"REDIS_PASSWORD", setString(&cfg.Redis.Password)},
		{"REDIS_API_INDEX", setInt(&cfg.Redis.DB)},

		{"POSTGRES_DSN", setString(&cfg.Postgres.DSN)},
		{"POSTGRES_HOST", setString(&cfg.Postgres.Host)},
		{"POSTGRES_PORT", setInt(&cfg.Postgres.Port)},
		{"POSTGRES_USER", setString(&cfg.Postgres.User)},
		{"POSTGRES_PASSWORD", setString(&cfg.Postgres.Password)},
		{"POSTGRES_DB", setString(&cfg.Postgres.DB)},
		{"POSTGRES_SSLMODE", setString(&cfg.Postgres.SSLMode)},
		{"POSTGRES_MIGRATE", setBool(&cfg.Postgres.Migrate)},
	}

	for _, b := range bindings {
		v, ok := lookup(b.key)
		if !ok {
			continue
		}
		if err := b.apply(strings.TrimSpace(v)); err != nil {
			return fmt.Errorf("env %s: %w", b.key, err)
		}
	}
	return nil
}

func setString(dst *string) func(string) error {
	return func(v string) error {
		*dst = v
		return nil
	}
}

func setInt(dst *int) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		*dst = n
		return nil
	}
}

func setBool(dst *bool) func(string) error {
	return func(v string) error {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return err
		}
		*dst = b
		return nil
	}
}

func setSeconds(dst *time.Duration) func(string) error {
	return func(v string) error {
		n, err := strconv.Atoi(v)
		if err != nil {
			return err
		}
		if n <= 0 {
			return errors.New("must be > 0")
		}
		*dst = time.Duration(n) * time.Second
		return nil
	}
}

func setList(dst *[]string) func(string) error {
	return func(v string) error {
		var out []string
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
		*dst = out
		return nil
	}
}
