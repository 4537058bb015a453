// Package flows contains pure-function orchestrators for every Engine operation.
//
// Each flow function (RunCheckAccess, RunIssue, RunRefresh, RunSignOut,
// RunSignUp, RunSignIn) accepts a typed dependency struct and returns a result
// struct tagged with a failure kind. The Engine maps kinds to public errors;
// flows never match on error identity to decide control flow across steps.
//
// # Architecture boundaries
//
// Flow functions coordinate calls to the session store, the token codec, the
// user repository and the sign-in limiter. They do NOT own any of these
// resources; ownership stays with the Engine.
//
// # What this package must NOT do
//
//   - Hold mutable state between calls.
//   - Import phoneauth (to avoid import cycles).
//   - Touch http.ResponseWriter or cookies.
package flows
