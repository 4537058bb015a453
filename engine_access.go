package phoneauth

import (
	"context"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth/internal/flows"
	"github.com/MrEthical07/phoneauth/permission"
)

// Authorize classifies the presented access token against allowed.
//
// The checks run in a fixed order: presence, signature, expiry, role. A
// missing or expired token yields NeedsRefresh; anything else that fails is
// Denied.
func (e *Engine) Authorize(allowed []permission.Role, creds Credentials) AccessDecision {
	if e == nil || e.codec == nil {
		return AccessDecision{Outcome: Denied, Err: ErrEngineNotReady}
	}

	var start time.Time
	if e.metrics.LatencyEnabled() {
		start = time.Now()
	}

	res := flows.RunCheckAccess(creds.Token(), allowed, e.flowDeps.Access)

	if !start.IsZero() {
		e.metrics.Observe(MetricAccessCheckLatency, time.Since(start))
	}

	switch res.Outcome {
	case flows.AccessAuthorized:
		return AccessDecision{Outcome: Authorized, Claims: res.Claims}
	case flows.AccessNeedsRefresh:
		e.metricInc(MetricAccessNeedsRefresh)
		err := ErrAccessNotFound
		if res.Failure == flows.AccessFailureExpired {
			err = ErrAccessExpires
		}
		return AccessDecision{Outcome: NeedsRefresh, Claims: res.Claims, Err: err}
	default:
		e.metricInc(MetricAccessDenied)
		err := ErrInvalidCredentials
		if res.Failure == flows.AccessFailureRole {
			err = ErrInvalidRole
		}
		return AccessDecision{Outcome: Denied, Err: err}
	}
}

// CheckAccess is Authorize collapsed to claims or an error.
func (e *Engine) CheckAccess(allowed []permission.Role, creds Credentials) (*AccessClaims, error) {
	d := e.Authorize(allowed, creds)
	if d.Outcome != Authorized {
		return nil, d.Err
	}
	return d.Claims, nil
}

// RoleFilter authorizes r for allowed roles and falls back to a refresh
// rotation when the access token is missing or expired. A rotation writes
// new cookies to w. Denied decisions are returned unchanged.
//
// An access token rejected from the Authorization header is not offered
// again as a refresh token; the refresh cookie is used instead.
func (e *Engine) RoleFilter(ctx context.Context, w http.ResponseWriter, r *http.Request, allowed ...permission.Role) (*AccessClaims, error) {
	if e == nil {
		return nil, ErrEngineNotReady
	}

	access := e.AccessCredentials(r)
	d := e.Authorize(allowed, access)
	switch d.Outcome {
	case Authorized:
		return d.Claims, nil
	case Denied:
		return nil, d.Err
	}

	refresh := e.RefreshCredentials(r)
	if access.Bearer != "" {
		refresh.Bearer = ""
	}

	claims, err := e.UpdateTokens(ctx, w, refresh)
	if err != nil {
		return nil, err
	}
	if !permission.Allowed(claims.Role, allowed) {
		e.metricInc(MetricAccessDenied)
		return nil, ErrInvalidRole
	}
	return claims, nil
}
