package internal

import (
	"crypto/rand"
	"encoding/hex"
	"io"
	"strings"

	"github.com/google/uuid"
)

// NewRefreshToken returns a random UUIDv4 string used as the refresh token value.
func NewRefreshToken() string {
	return uuid.NewString()
}

// NewSalt returns n bytes from the system CSPRNG.
func NewSalt(n int) ([]byte, error) {
	salt := make([]byte, n)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, err
	}
	return salt, nil
}

// NewHexSalt returns a 32-character lowercase hex salt derived from a random UUID.
func NewHexSalt() string {
	id := uuid.New()
	return strings.ToLower(hex.EncodeToString(id[:]))
}
