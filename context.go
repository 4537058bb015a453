package phoneauth

import "context"

type clientIPContextKey struct{}
type claimsContextKey struct{}

// WithClientIP attaches the caller's IP address to ctx. SignIn uses it for
// the per-IP attempt budget.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, clientIPContextKey{}, ip)
}

// WithClaims attaches authorized access claims to ctx. The middleware
// package calls it after a successful role filter.
func WithClaims(ctx context.Context, claims *AccessClaims) context.Context {
	return context.WithValue(ctx, claimsContextKey{}, claims)
}

// ClaimsFromContext returns the claims stored by WithClaims.
func ClaimsFromContext(ctx context.Context) (*AccessClaims, bool) {
	if ctx == nil {
		return nil, false
	}

	claims, ok := ctx.Value(claimsContextKey{}).(*AccessClaims)
	return claims, ok && claims != nil
}

func clientIPFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	ip, _ := ctx.Value(clientIPContextKey{}).(string)
	return ip
}
