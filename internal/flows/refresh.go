package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/session"
)

// RefreshFailureKind classifies refresh flow failures for root-level mapping.
type RefreshFailureKind int

const (
	RefreshFailureNone RefreshFailureKind = iota
	RefreshFailureNotPresented
	RefreshFailureNotFound
	RefreshFailureStore
	RefreshFailureIssue
)

// RefreshResult carries either the rotated pair or failure metadata.
type RefreshResult struct {
	Failure RefreshFailureKind
	Err     error
	UserID  string
	Role    permission.Role
	Issue   IssueResult
}

// RefreshSessionStore consumes a refresh record exactly once.
type RefreshSessionStore interface {
	PopRefreshByToken(ctx context.Context, token string) (*session.RefreshRecord, error)
}

// RefreshDeps captures refresh flow dependencies.
type RefreshDeps struct {
	SessionStore RefreshSessionStore
	Issue        IssueDeps
}

// RunRefresh consumes the presented refresh token and issues a new pair for
// its owner. A record that is missing, expired or already consumed yields
// RefreshFailureNotFound.
func RunRefresh(ctx context.Context, refreshToken string, deps RefreshDeps) RefreshResult {
	if refreshToken == "" {
		return RefreshResult{Failure: RefreshFailureNotPresented}
	}

	record, err := deps.SessionStore.PopRefreshByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, session.ErrRefreshNotFound) {
			return RefreshResult{Failure: RefreshFailureNotFound, Err: err}
		}
		return RefreshResult{Failure: RefreshFailureStore, Err: err}
	}

	role := permission.Role(record.Role)
	issued := RunIssue(ctx, record.UserID, role, deps.Issue)
	if issued.Err != nil {
		return RefreshResult{
			Failure: RefreshFailureIssue,
			Err:     issued.Err,
			UserID:  record.UserID,
			Role:    role,
		}
	}

	return RefreshResult{
		UserID: record.UserID,
		Role:   role,
		Issue:  issued,
	}
}
