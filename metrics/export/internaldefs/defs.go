package internaldefs

import (
	"github.com/MrEthical07/phoneauth"
)

// CounterDef binds a MetricID to its exported name.
type CounterDef struct {
	ID   phoneauth.MetricID
	Name string
	Help string
}

// HistogramDef binds a latency MetricID to its exported name.
type HistogramDef struct {
	ID   phoneauth.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in render order.
var CounterDefs = []CounterDef{
	{ID: phoneauth.MetricSignInSuccess, Name: "phoneauth_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: phoneauth.MetricSignInFailure, Name: "phoneauth_sign_in_failure_total", Help: "Sign-ins rejected for bad credentials."},
	{ID: phoneauth.MetricSignInRateLimited, Name: "phoneauth_sign_in_rate_limited_total", Help: "Sign-ins blocked by the attempt budget."},
	{ID: phoneauth.MetricSignUpSuccess, Name: "phoneauth_sign_up_success_total", Help: "Created accounts."},
	{ID: phoneauth.MetricSignUpDuplicate, Name: "phoneauth_sign_up_duplicate_total", Help: "Sign-ups rejected for a taken phone or telegram id."},
	{ID: phoneauth.MetricRefreshSuccess, Name: "phoneauth_refresh_success_total", Help: "Successful token rotations."},
	{ID: phoneauth.MetricRefreshFailure, Name: "phoneauth_refresh_failure_total", Help: "Failed token rotations."},
	{ID: phoneauth.MetricSignOut, Name: "phoneauth_sign_out_total", Help: "Sign-out requests."},
	{ID: phoneauth.MetricTokensIssued, Name: "phoneauth_tokens_issued_total", Help: "Issued token pairs."},
	{ID: phoneauth.MetricRefreshEvicted, Name: "phoneauth_refresh_evicted_total", Help: "Refresh records evicted by a newer session."},
	{ID: phoneauth.MetricAccessDenied, Name: "phoneauth_access_denied_total", Help: "Access checks denied for signature or role."},
	{ID: phoneauth.MetricAccessNeedsRefresh, Name: "phoneauth_access_needs_refresh_total", Help: "Access checks with a missing or expired token."},
}

// HistogramDefs lists every exported latency histogram.
var HistogramDefs = []HistogramDef{
	{ID: phoneauth.MetricAccessCheckLatency, Name: "phoneauth_access_check_latency_seconds", Help: "Access check latency histogram."},
	{ID: phoneauth.MetricSignInLatency, Name: "phoneauth_sign_in_latency_seconds", Help: "Sign-in latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the engine's buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// NormalizeBuckets pads or truncates raw to the fixed bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets turns per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
