package password

import (
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/MrEthical07/phoneauth/internal"
	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// Argon2 hashes with Argon2id and encodes "hex(digest):hex(salt)".
//
// Cost parameters are not embedded in the encoded string, so they must stay
// fixed for the lifetime of stored hashes.
type Argon2 struct {
	config Config
}

// NewArgon2 validates the cost parameters and returns a hasher.
func NewArgon2(cfg Config) (*Argon2, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	if cfg.MaxPasswordBytes <= 0 {
		cfg.MaxPasswordBytes = DefaultMaxPasswordBytes
	}

	return &Argon2{config: cfg}, nil
}

// Hash derives a digest with a fresh random salt.
func (a *Argon2) Hash(password string) (string, error) {
	// Password processing uses raw string bytes exactly as provided (no Unicode normalization).
	if err := checkPlaintext(password, a.config.MaxPasswordBytes); err != nil {
		return "", err
	}

	salt, err := internal.NewSalt(int(a.config.SaltLength))
	if err != nil {
		return "", err
	}

	digest := a.derive(password, salt)
	return hex.EncodeToString(digest) + separator + hex.EncodeToString(salt), nil
}

// Verify recomputes the digest with the stored salt and compares in constant time.
// A stored value that is not "digest:salt" hex returns ErrMalformedHash.
func (a *Argon2) Verify(password string, encodedHash string) (bool, error) {
	digestHex, saltHex, err := splitEncoded(encodedHash)
	if err != nil {
		return false, err
	}

	digest, err := hex.DecodeString(digestHex)
	if err != nil || len(digest) == 0 {
		return false, ErrMalformedHash
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil || len(salt) == 0 {
		return false, ErrMalformedHash
	}

	if err := checkPlaintext(password, a.config.MaxPasswordBytes); err != nil {
		return false, nil
	}

	computed := argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		uint32(len(digest)),
	)

	return subtle.ConstantTimeCompare(computed, digest) == 1, nil
}

func (a *Argon2) derive(password string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(password),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)
}

func validateConfig(cfg Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return errors.New("password salt length must be >= 16")
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
