package flows

import (
	"context"
	"time"

	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/permission"
)

// IssueSessionStore atomically replaces a user's refresh record with a new one.
type IssueSessionStore interface {
	IssueRefresh(ctx context.Context, userID, role string, ttl time.Duration) (string, int, error)
}

// IssueDeps captures token issuance dependencies.
type IssueDeps struct {
	SessionStore IssueSessionStore
	EncodeAccess func(jwt.AccessClaims) (string, error)
	Now          func() time.Time
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

// IssueResult carries a freshly minted pair. RefreshToken never leaves the
// root package except as a cookie value.
type IssueResult struct {
	Err          error
	RefreshToken string
	AccessToken  string
	Claims       *jwt.AccessClaims
	Evicted      int
}

// RunIssue evicts the user's previous refresh record, stores a new one and
// mints the matching access token.
func RunIssue(ctx context.Context, userID string, role permission.Role, deps IssueDeps) IssueResult {
	refreshToken, evicted, err := deps.SessionStore.IssueRefresh(ctx, userID, string(role), deps.RefreshTTL)
	if err != nil {
		return IssueResult{Err: err}
	}

	claims := &jwt.AccessClaims{
		Subject:   userID,
		Role:      role,
		ExpiresAt: deps.Now().Add(deps.AccessTTL).Unix(),
	}
	accessToken, err := deps.EncodeAccess(*claims)
	if err != nil {
		return IssueResult{Err: err, Evicted: evicted}
	}

	return IssueResult{
		RefreshToken: refreshToken,
		AccessToken:  accessToken,
		Claims:       claims,
		Evicted:      evicted,
	}
}
