// Package internal contains helper utilities that are private to phoneauth,
// mainly secure random generation for refresh tokens and password salts.
//
// # Sub-packages
//
//   - flows: pure-function flow orchestrators for every Engine operation
//   - logging: context-aware structured logger over log/slog
//   - rate: Redis-backed fixed-window counters for sign-in throttling
//   - dbx: database/sql transaction helper
//   - config: server configuration loading
//   - httpapi: HTTP routes and handlers
//
// # What this package must NOT do
//
//   - Export types that appear in the public phoneauth API.
//   - Be imported by any package outside the phoneauth module.
package internal
