package middleware

import (
	"net/http"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/permission"
)

// RoleFilter admits requests whose access token carries one of roles. A
// missing or expired access token is recovered through a refresh rotation,
// which writes new cookies before next runs. The authorized claims are
// available to next through phoneauth.ClaimsFromContext.
func RoleFilter(engine *phoneauth.Engine, roles ...permission.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, phoneauth.ErrEngineNotReady)
				return
			}

			claims, err := engine.RoleFilter(r.Context(), w, r, roles...)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(phoneauth.WithClaims(r.Context(), claims)))
		})
	}
}

// RequireAccess admits requests with a valid, unexpired access token for one
// of roles. It never rotates tokens.
func RequireAccess(engine *phoneauth.Engine, roles ...permission.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if engine == nil {
				WriteError(w, phoneauth.ErrEngineNotReady)
				return
			}

			claims, err := engine.CheckAccess(roles, engine.AccessCredentials(r))
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(phoneauth.WithClaims(r.Context(), claims)))
		})
	}
}
