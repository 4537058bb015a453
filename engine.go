package phoneauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth/internal/flows"
	"github.com/MrEthical07/phoneauth/internal/logging"
	"github.com/MrEthical07/phoneauth/internal/rate"
	"github.com/MrEthical07/phoneauth/jwt"
	"github.com/MrEthical07/phoneauth/password"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/session"
	"github.com/MrEthical07/phoneauth/users"
)

// Engine issues, rotates and revokes token pairs, guards role-restricted
// operations and runs the account flows.
//
// Engine instances are built once through [Builder.Build] and are safe for
// concurrent use afterwards.
type Engine struct {
	config       Config
	sessionStore *session.Store
	rateLimiter  *rate.Limiter
	codec        *jwt.Codec
	passwordHash password.Hasher
	userStore    users.Repository
	metrics      *Metrics
	logger       logging.Logger
	clock        func() time.Time
	flowDeps     flows.Deps
}

// Close releases engine-owned resources. The Redis client and user store are
// owned by the caller and stay open.
func (e *Engine) Close() {}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	if e == nil {
		return Config{}
	}
	return cloneConfig(e.config)
}

// MetricsSnapshot returns the current counters. A disabled or nil engine
// yields empty maps.
func (e *Engine) MetricsSnapshot() MetricsSnapshot {
	if e == nil || e.metrics == nil {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}
	return e.metrics.Snapshot()
}

// Ping checks the session store connection.
func (e *Engine) Ping(ctx context.Context) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}
	return e.sessionStore.Ping(ctx)
}

func (e *Engine) metricInc(id MetricID) {
	if e == nil || e.metrics == nil {
		return
	}
	e.metrics.Inc(id)
}

func (e *Engine) now() time.Time {
	if e == nil || e.clock == nil {
		return time.Now()
	}
	return e.clock()
}

// CreateTokens starts a session for userID. Any refresh record the user
// already holds is evicted, a new one is stored for the refresh TTL and an
// access token is minted. Both tokens are written to w as cookies; only the
// access claims are returned.
func (e *Engine) CreateTokens(ctx context.Context, w http.ResponseWriter, userID string, role permission.Role) (*AccessClaims, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}
	if userID == "" {
		return nil, ErrInvalidCredentials
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	res := flows.RunIssue(ctx, userID, role, e.flowDeps.Issue)
	if res.Err != nil {
		e.logger.Error(ctx, "token issue failed", "user_id", userID, "error", res.Err)
		return nil, issueError(res.Err)
	}

	e.afterIssue(ctx, w, res)
	return res.Claims, nil
}

// UpdateTokens rotates the presented refresh token. The bearer header wins
// over the cookie. A request with no refresh token fails with
// ErrRefreshNotFound. A token with no live record (unknown, consumed or
// expired) fails with ErrInvalidCredentials. On success the old record is
// gone and a fresh pair is written to w.
func (e *Engine) UpdateTokens(ctx context.Context, w http.ResponseWriter, creds Credentials) (*AccessClaims, error) {
	if e == nil || e.sessionStore == nil {
		return nil, ErrEngineNotReady
	}

	res := flows.RunRefresh(ctx, creds.Token(), e.flowDeps.Refresh)
	switch res.Failure {
	case flows.RefreshFailureNone:
	case flows.RefreshFailureNotPresented:
		e.metricInc(MetricRefreshFailure)
		return nil, ErrRefreshNotFound
	case flows.RefreshFailureNotFound:
		e.metricInc(MetricRefreshFailure)
		e.logger.Debug(ctx, "refresh token rejected")
		return nil, ErrInvalidCredentials
	case flows.RefreshFailureIssue:
		e.metricInc(MetricRefreshFailure)
		e.logger.Error(ctx, "token reissue failed after refresh pop", "user_id", res.UserID, "error", res.Err)
		return nil, issueError(res.Err)
	default:
		e.metricInc(MetricRefreshFailure)
		e.logger.Error(ctx, "refresh pop failed", "error", res.Err)
		return nil, res.Err
	}

	e.metricInc(MetricRefreshSuccess)
	e.afterIssue(ctx, w, res.Issue)
	return res.Issue.Claims, nil
}

// DeleteTokens ends the session bound to refreshCookie, if any, and clears
// both cookies. It never fails for a missing or already-consumed token.
func (e *Engine) DeleteTokens(ctx context.Context, w http.ResponseWriter, refreshCookie string) error {
	if e == nil || e.sessionStore == nil {
		return ErrEngineNotReady
	}

	res := flows.RunSignOut(ctx, refreshCookie, e.flowDeps.SignOut)
	e.clearTokenCookies(w)
	if res.Err != nil {
		e.logger.Error(ctx, "sign-out pop failed", "error", res.Err)
		return res.Err
	}

	e.metricInc(MetricSignOut)
	if res.Revoked {
		e.logger.Info(ctx, "signed out", "user_id", res.UserID)
	}
	return nil
}

// RevokeUser drops the refresh record of userID without touching cookies.
// It reports whether a record existed.
func (e *Engine) RevokeUser(ctx context.Context, userID string) (bool, error) {
	if e == nil || e.sessionStore == nil {
		return false, ErrEngineNotReady
	}
	if _, err := e.sessionStore.PopRefreshByUser(ctx, userID); err != nil {
		if errors.Is(err, session.ErrRefreshNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (e *Engine) afterIssue(ctx context.Context, w http.ResponseWriter, res flows.IssueResult) {
	e.setTokenCookies(w, res.RefreshToken, res.AccessToken)
	e.metricInc(MetricTokensIssued)
	if e.metrics != nil && res.Evicted > 0 {
		e.metrics.Add(MetricRefreshEvicted, uint64(res.Evicted))
	}
	e.logger.Debug(ctx, "tokens issued",
		"user_id", res.Claims.Subject,
		"role", res.Claims.Role,
		"evicted", res.Evicted,
	)
}

func issueError(err error) error {
	if errors.Is(err, session.ErrRedisUnavailable) {
		return err
	}
	return fmt.Errorf("issue tokens: %w", err)
}
