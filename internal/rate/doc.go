// Package rate provides Redis-backed fixed-window counters that throttle
// failed sign-in attempts.
//
// # Window semantics
//
// INCR + conditional EXPIRE on first hit. Key prefixes (after the configured
// KeyPrefix):
//   - si:   failed sign-ins per phone
//   - sii:  failed sign-ins per client IP
//
// A phone or IP is blocked once its counter reaches MaxSignInAttempts and
// stays blocked until the window expires or a successful sign-in resets the
// phone counter.
//
// # What this package must NOT do
//
//   - Share keys with the refresh-record keyspace.
//   - Be imported outside the phoneauth module.
package rate
