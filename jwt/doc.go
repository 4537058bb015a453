// Package jwt encodes and decodes access tokens signed with one shared
// secret and a pinned HMAC algorithm.
//
// # Claims
//
// Tokens carry sub (user id), role and exp (unix seconds). Decode rejects a
// token that lacks sub or exp, is signed with another algorithm, or fails
// signature verification, always wrapping [ErrInvalidToken].
//
// Decode skips time-based validation; the access guard compares exp against
// its own clock.
//
// # What this package must NOT do
//
//   - Access Redis or any store.
//   - Import phoneauth or session.
package jwt
