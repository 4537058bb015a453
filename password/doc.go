// Package password implements salted one-way password hashing and verification.
//
// # Output format
//
// Every scheme encodes a single "digest:salt" string:
//
//	<hex argon2id digest>:<hex salt>       (SchemeArgon2id, default)
//	<hex sha256(salt+password)>:<salt>     (SchemeSHA256)
//
// A stored value that does not split into exactly two non-empty parts is a
// data error and Verify returns [ErrMalformedHash] instead of false.
//
// # Architecture boundaries
//
// This package owns hashing and verification only. Lookups of stored hashes
// belong to the users package and the Engine.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Log plaintext passwords or hash parameters at runtime.
package password
