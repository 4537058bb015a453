package password

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"github.com/MrEthical07/phoneauth/internal"
)

// SHA256 produces "hex(sha256(salt+password)):salt" with a 32-char hex salt.
// It reads hashes written before the Argon2id default and can still issue
// them when the deployment is pinned to the old scheme.
type SHA256 struct {
	maxBytes int
}

// NewSHA256 returns a salted SHA-256 hasher. maxBytes <= 0 uses the default cap.
func NewSHA256(maxBytes int) *SHA256 {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPasswordBytes
	}
	return &SHA256{maxBytes: maxBytes}
}

// Hash salts and digests password.
func (s *SHA256) Hash(password string) (string, error) {
	if err := checkPlaintext(password, s.maxBytes); err != nil {
		return "", err
	}
	salt := internal.NewHexSalt()
	return digestSHA256(salt, password) + separator + salt, nil
}

// Verify recomputes the salted digest and compares in constant time.
func (s *SHA256) Verify(password, encoded string) (bool, error) {
	digest, salt, err := splitEncoded(encoded)
	if err != nil {
		return false, err
	}
	if err := checkPlaintext(password, s.maxBytes); err != nil {
		return false, nil
	}

	computed := digestSHA256(salt, password)
	return subtle.ConstantTimeCompare([]byte(computed), []byte(digest)) == 1, nil
}

func digestSHA256(salt, password string) string {
	sum := sha256.Sum256([]byte(salt + password))
	return hex.EncodeToString(sum[:])
}
