// Package session provides the Redis-backed store for refresh-token records.
//
// # Key layout
//
// A refresh record is a plain string key "{token},{user_id}" holding the role
// captured at issuance, with a PX expiry equal to the refresh TTL. There is no
// secondary index: lookups by token or by user go through SCAN MATCH on the
// matching half of the key.
//
// # Atomicity
//
// [Store.Pop] is one Lua script (GET then DEL), so a record is consumed by at
// most one caller. [Store.IssueRefresh] evicts the user's previous records and
// writes the new one inside a single script.
//
// # What this package must NOT do
//
//   - Import phoneauth or jwt (no upward imports).
//   - Decide what a missing record means to the client.
//   - Own the Redis client lifecycle.
package session
