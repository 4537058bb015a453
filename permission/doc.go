// Package permission defines the closed role set and the explicit rank table
// used by access checks.
//
// # Ordering
//
// Role order is an integer rank per role, not declaration order. Callers
// build allow-lists with [AtLeast] or list roles explicitly, then test
// membership with [Allowed].
//
// # What this package must NOT do
//
//   - Access Redis, databases, or the network.
//   - Import phoneauth, jwt, or session.
package permission
