// Package middleware exposes net/http adapters over the phoneauth access
// guard.
//
// # Guards
//
//   - [RoleFilter]: role check with refresh fallback for missing or expired
//     access tokens.
//   - [RequireAccess]: role check only; a stale access token is rejected.
//
// Both guards store the authorized claims in the request context and answer
// failures with a JSON {"detail": ...} body via [WriteError].
//
// # What this package must NOT do
//
//   - Parse or create JWTs directly (delegates to Engine).
//   - Access Redis (Engine handles I/O).
package middleware
