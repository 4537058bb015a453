package phoneauth

import (
	"time"

	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users"
)

// AccessClaims is the decoded access-token payload: subject (user id), role
// and expiry in unix seconds.
type AccessClaims = jwt.AccessClaims

// Credentials are the two transports a token can arrive on. Bearer holds the
// value of the Authorization header with the scheme stripped.
type Credentials struct {
	Bearer string
	Cookie string
}

// Token returns the presented token. The bearer header takes precedence
// over the cookie.
func (c Credentials) Token() string {
	if c.Bearer != "" {
		return c.Bearer
	}
	return c.Cookie
}

// AccessOutcome tags an AccessDecision.
type AccessOutcome uint8

const (
	// Authorized means Claims is populated and the role is allowed.
	Authorized AccessOutcome = iota
	// NeedsRefresh means the access token is missing or expired. Err is
	// ErrAccessNotFound or ErrAccessExpires.
	NeedsRefresh
	// Denied is terminal. Err is ErrInvalidCredentials or ErrInvalidRole.
	Denied
)

func (o AccessOutcome) String() string {
	switch o {
	case Authorized:
		return "authorized"
	case NeedsRefresh:
		return "needs_refresh"
	case Denied:
		return "denied"
	default:
		return "unknown"
	}
}

// AccessDecision is returned by [Engine.Authorize].
type AccessDecision struct {
	Outcome AccessOutcome
	Claims  *AccessClaims
	Err     error
}

// SignUpRequest carries a new account. Role defaults to
// Config.Account.DefaultRole when empty.
type SignUpRequest struct {
	Phone      string
	Password   string
	Role       permission.Role
	TelegramID *int64
	FirstName  *string
	Surname    *string
	Patronymic *string
	Gender     *users.Gender
	Birthdate  *time.Time
}
