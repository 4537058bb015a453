package flows

import (
	"time"

	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/permission"
)

// AccessOutcome is the tagged result of an access check.
type AccessOutcome int

const (
	// AccessAuthorized carries valid claims for an allowed role.
	AccessAuthorized AccessOutcome = iota
	// AccessNeedsRefresh means no access token or an expired one; a refresh
	// exchange may recover the request.
	AccessNeedsRefresh
	// AccessDenied is terminal for the request.
	AccessDenied
)

// AccessFailureKind classifies access failures for root-level mapping.
type AccessFailureKind int

const (
	AccessFailureNone AccessFailureKind = iota
	AccessFailureNotFound
	AccessFailureExpired
	AccessFailureInvalidToken
	AccessFailureRole
)

// AccessResult is produced by RunCheckAccess.
type AccessResult struct {
	Outcome AccessOutcome
	Failure AccessFailureKind
	Err     error
	Claims  *jwt.AccessClaims
}

// AccessDeps captures access check dependencies.
type AccessDeps struct {
	DecodeAccess func(string) (*jwt.AccessClaims, error)
	Now          func() time.Time
}

// RunCheckAccess resolves, decodes and authorizes an access token in a fixed
// order: presence, signature, expiry, role. A token whose exp equals the
// current second is expired.
func RunCheckAccess(token string, allowed []permission.Role, deps AccessDeps) AccessResult {
	if token == "" {
		return AccessResult{Outcome: AccessNeedsRefresh, Failure: AccessFailureNotFound}
	}

	claims, err := deps.DecodeAccess(token)
	if err != nil {
		return AccessResult{Outcome: AccessDenied, Failure: AccessFailureInvalidToken, Err: err}
	}

	if deps.Now().Unix() >= claims.ExpiresAt {
		return AccessResult{Outcome: AccessNeedsRefresh, Failure: AccessFailureExpired, Claims: claims}
	}

	if !permission.Allowed(claims.Role, allowed) {
		return AccessResult{Outcome: AccessDenied, Failure: AccessFailureRole, Claims: claims}
	}

	return AccessResult{Outcome: AccessAuthorized, Claims: claims}
}
