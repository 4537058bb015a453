package password

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// SchemeArgon2id selects the Argon2id hasher.
	SchemeArgon2id = "argon2id"
	// SchemeSHA256 selects the salted SHA-256 hasher kept for hashes written
	// by earlier deployments.
	SchemeSHA256 = "sha256"

	// DefaultMaxPasswordBytes caps the plaintext accepted by Hash and Verify.
	DefaultMaxPasswordBytes = 1024

	separator = ":"
)

var (
	// ErrMalformedHash is returned when a stored hash does not split into
	// exactly one digest and one salt.
	ErrMalformedHash = errors.New("malformed password hash")
	// ErrEmptyPassword rejects empty plaintext.
	ErrEmptyPassword = errors.New("password is empty")
	// ErrPasswordTooLong rejects plaintext over the configured byte limit.
	ErrPasswordTooLong = errors.New("password too long")
)

// Hasher produces and checks "digest:salt" password hashes.
type Hasher interface {
	Hash(password string) (string, error)
	Verify(password, encoded string) (bool, error)
}

// Config selects the scheme and its parameters.
type Config struct {
	Scheme           string
	Memory           uint32
	Time             uint32
	Parallelism      uint8
	SaltLength       uint32
	KeyLength        uint32
	MaxPasswordBytes int
}

// DefaultConfig returns Argon2id with 64 MiB memory and three passes.
func DefaultConfig() Config {
	return Config{
		Scheme:           SchemeArgon2id,
		Memory:           64 * 1024,
		Time:             3,
		Parallelism:      2,
		SaltLength:       16,
		KeyLength:        32,
		MaxPasswordBytes: DefaultMaxPasswordBytes,
	}
}

// New builds the Hasher selected by cfg.Scheme.
func New(cfg Config) (Hasher, error) {
	switch strings.ToLower(cfg.Scheme) {
	case "", SchemeArgon2id:
		return NewArgon2(cfg)
	case SchemeSHA256:
		return NewSHA256(cfg.MaxPasswordBytes), nil
	default:
		return nil, fmt.Errorf("unsupported password scheme %q", cfg.Scheme)
	}
}

func checkPlaintext(password string, max int) error {
	if password == "" {
		return ErrEmptyPassword
	}
	if max <= 0 {
		max = DefaultMaxPasswordBytes
	}
	if len(password) > max {
		return ErrPasswordTooLong
	}
	return nil
}

func splitEncoded(encoded string) (digest, salt string, err error) {
	parts := strings.Split(encoded, separator)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", ErrMalformedHash
	}
	return parts[0], parts[1], nil
}
