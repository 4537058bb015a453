// Package httpapi is the REST surface of the phoneauth server.
//
// All routes live under /api/v1 and accept an optional trailing slash:
//
//	POST   /api/v1/sign-up    204, sets refresh and access cookies
//	POST   /api/v1/sign-in    204, sets refresh and access cookies
//	DELETE /api/v1/sign-out   204, clears both cookies
//	GET    /api/v1/refresh    204, rotates both cookies
//	GET    /api/v1/users/me   200, profile of the caller
//	PATCH  /api/v1/users/me   200, updated profile
//	GET    /healthz
//	GET    /metrics
//
// Errors are written as {"detail": "..."} by middleware.WriteError.
package httpapi
