package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/phoneauth/session"
)

// SignOutSessionStore removes the record bound to a refresh token.
type SignOutSessionStore interface {
	PopRefreshByToken(ctx context.Context, token string) (*session.RefreshRecord, error)
}

// SignOutDeps captures sign-out flow dependencies.
type SignOutDeps struct {
	SessionStore SignOutSessionStore
}

// SignOutResult reports whether a record was removed and whose it was.
type SignOutResult struct {
	Revoked bool
	UserID  string
	Err     error
}

// RunSignOut discards the stored record for refreshToken if one exists. A
// missing token or record is not an error.
func RunSignOut(ctx context.Context, refreshToken string, deps SignOutDeps) SignOutResult {
	if refreshToken == "" {
		return SignOutResult{}
	}

	record, err := deps.SessionStore.PopRefreshByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshNotFound) {
			return SignOutResult{}
		}
		return SignOutResult{Err: err}
	}

	return SignOutResult{Revoked: true, UserID: record.UserID}
}
