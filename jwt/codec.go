package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/MrEthical07/phoneauth/permission"
	"github.com/golang-jwt/jwt/v5"
)

// Algorithm names a symmetric JWT signing algorithm.
type Algorithm string

const (
	// HS256 is the default signing algorithm.
	HS256 Algorithm = "HS256"
	HS384 Algorithm = "HS384"
	HS512 Algorithm = "HS512"
)

// ErrInvalidToken covers every decode failure: bad signature, malformed
// input, unexpected algorithm, or a missing sub/exp claim.
var ErrInvalidToken = errors.New("invalid access token")

// Config holds the single shared secret and the pinned algorithm.
type Config struct {
	Secret    []byte
	Algorithm Algorithm
}

// AccessClaims is the decoded access token payload.
type AccessClaims struct {
	Subject   string
	Role      permission.Role
	ExpiresAt int64
}

// Expiry returns ExpiresAt as a time.Time.
func (c AccessClaims) Expiry() time.Time {
	return time.Unix(c.ExpiresAt, 0)
}

type wireClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Codec signs and verifies access tokens. It holds no mutable state and is
// safe for concurrent use.
type Codec struct {
	secret []byte
	method jwt.SigningMethod
}

// NewCodec validates cfg and returns a Codec. An empty algorithm means HS256.
func NewCodec(cfg Config) (*Codec, error) {
	if len(cfg.Secret) == 0 {
		return nil, errors.New("jwt secret must not be empty")
	}

	method, err := signingMethod(cfg.Algorithm)
	if err != nil {
		return nil, err
	}

	secret := make([]byte, len(cfg.Secret))
	copy(secret, cfg.Secret)

	return &Codec{secret: secret, method: method}, nil
}

// Encode signs claims as a compact JWT carrying sub, role and exp.
func (c *Codec) Encode(claims AccessClaims) (string, error) {
	if claims.Subject == "" {
		return "", errors.New("access claims require a subject")
	}

	wire := wireClaims{
		Role: string(claims.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claims.Subject,
			ExpiresAt: jwt.NewNumericDate(time.Unix(claims.ExpiresAt, 0)),
		},
	}

	return jwt.NewWithClaims(c.method, wire).SignedString(c.secret)
}

// Decode verifies the signature and required claims. Expiry is not checked;
// callers compare ExpiresAt against their own clock.
func (c *Codec) Decode(token string) (*AccessClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{c.method.Alg()}),
		jwt.WithoutClaimsValidation(),
	)

	parsed, err := parser.ParseWithClaims(token, &wireClaims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method.Alg() != c.method.Alg() {
			return nil, fmt.Errorf("unexpected signing algorithm: %s", t.Method.Alg())
		}
		return c.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	wire, ok := parsed.Claims.(*wireClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if wire.Subject == "" {
		return nil, fmt.Errorf("%w: missing sub", ErrInvalidToken)
	}
	if wire.ExpiresAt == nil {
		return nil, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}

	return &AccessClaims{
		Subject:   wire.Subject,
		Role:      permission.Role(wire.Role),
		ExpiresAt: wire.ExpiresAt.Unix(),
	}, nil
}

func signingMethod(alg Algorithm) (jwt.SigningMethod, error) {
	switch Algorithm(strings.ToUpper(string(alg))) {
	case "", HS256:
		return jwt.SigningMethodHS256, nil
	case HS384:
		return jwt.SigningMethodHS384, nil
	case HS512:
		return jwt.SigningMethodHS512, nil
	default:
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
}
