// Package phoneauth provides phone-number account authentication with
// short-lived JWT access tokens and single-use opaque refresh tokens stored
// in Redis.
//
// Engine methods are safe to call from multiple goroutines after
// initialization through [Builder.Build].
//
// # Session model
//
// Each user holds at most one refresh record, keyed "{token},{user_id}" and
// valued with the role. Issuing a pair evicts the previous record in the
// same Redis script that stores the new one. Refreshing pops the record,
// so a refresh token can be used once. Tokens travel as cookies; the
// Authorization header is accepted as an alternative transport and wins
// when both are present.
//
// # Architecture boundaries
//
// phoneauth is the public surface. It exposes [Engine], [Builder], [Config]
// and value types. Flow orchestration, rate limiting and logging live under
// internal/. The Redis client and the user repository are injected and
// stay owned by the caller.
//
// # What this package must NOT do
//
//   - Return refresh tokens from any method; they are written as cookies only.
//   - Hold a package-level Redis client or any other global connection.
//   - Import any sub-package that re-imports phoneauth (no import cycles).
package phoneauth
