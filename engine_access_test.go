package phoneauth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/MrEthical07/phoneauth/permission"
)

func issuePair(t testing.TB, env *testEnv, userID string, role permission.Role) (refresh, access string) {
	t.Helper()
	rec := httptest.NewRecorder()
	if _, err := env.engine.CreateTokens(context.Background(), rec, userID, role); err != nil {
		t.Fatalf("CreateTokens: %v", err)
	}
	return cookieFrom(t, rec, "refresh").Value, cookieFrom(t, rec, "access").Value
}

func TestCheckAccessOrder(t *testing.T) {
	env := newTestEnv(t, nil)
	_, access := issuePair(t, env, "u-1", permission.RoleClient)
	clients := permission.AtLeast(permission.RoleClient)
	admins := []permission.Role{permission.RoleAdmin}

	if _, err := env.engine.CheckAccess(clients, Credentials{}); !errors.Is(err, ErrAccessNotFound) {
		t.Fatalf("missing: expected ErrAccessNotFound, got %v", err)
	}
	if _, err := env.engine.CheckAccess(clients, Credentials{Cookie: "not-a-jwt"}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("garbage: expected ErrInvalidCredentials, got %v", err)
	}
	if _, err := env.engine.CheckAccess(admins, Credentials{Cookie: access}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("role: expected ErrInvalidRole, got %v", err)
	}

	claims, err := env.engine.CheckAccess(clients, Credentials{Cookie: access})
	if err != nil || claims.Subject != "u-1" {
		t.Fatalf("expected authorized, got %+v %v", claims, err)
	}

	env.clock.Advance(2 * time.Minute)
	if _, err := env.engine.CheckAccess(admins, Credentials{Cookie: access}); !errors.Is(err, ErrAccessExpires) {
		t.Fatalf("expiry must be reported before role, got %v", err)
	}
}

func TestCheckAccessPrefersBearerOverCookie(t *testing.T) {
	env := newTestEnv(t, nil)
	_, bearer := issuePair(t, env, "u-bearer", permission.RoleClient)
	_, cookie := issuePair(t, env, "u-cookie", permission.RoleManager)

	claims, err := env.engine.CheckAccess(permission.All(), Credentials{Bearer: bearer, Cookie: cookie})
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if claims.Subject != "u-bearer" || claims.Role != permission.RoleClient {
		t.Fatalf("expected bearer claims, got %+v", claims)
	}

	// The cookie would pass a manager-only check; the bearer must not.
	if _, err := env.engine.CheckAccess([]permission.Role{permission.RoleManager}, Credentials{Bearer: bearer, Cookie: cookie}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole from bearer role, got %v", err)
	}

	r := requestWith(map[string]string{"access": cookie}, bearer)
	claims, err = env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.All()...)
	if err != nil {
		t.Fatalf("RoleFilter: %v", err)
	}
	if claims.Subject != "u-bearer" {
		t.Fatalf("RoleFilter: expected bearer subject, got %+v", claims)
	}
}

func TestCheckAccessForeignSecret(t *testing.T) {
	env := newTestEnv(t, nil)
	other := newTestEnv(t, func(c *Config) { c.JWT.Secret = []byte("another-secret") })
	_, access := issuePair(t, other, "u-1", permission.RoleClient)

	if _, err := env.engine.CheckAccess(permission.All(), Credentials{Bearer: access}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthorizeOutcomes(t *testing.T) {
	env := newTestEnv(t, nil)
	_, access := issuePair(t, env, "u-1", permission.RoleManager)

	if d := env.engine.Authorize(permission.All(), Credentials{}); d.Outcome != NeedsRefresh || !errors.Is(d.Err, ErrAccessNotFound) {
		t.Fatalf("missing token: %+v", d)
	}
	if d := env.engine.Authorize(permission.All(), Credentials{Cookie: access}); d.Outcome != Authorized || d.Claims.Role != permission.RoleManager {
		t.Fatalf("valid token: %+v", d)
	}
	if d := env.engine.Authorize([]permission.Role{permission.RoleClient}, Credentials{Cookie: access}); d.Outcome != Denied || !errors.Is(d.Err, ErrInvalidRole) {
		t.Fatalf("wrong role: %+v", d)
	}

	env.clock.Advance(3 * time.Minute)
	if d := env.engine.Authorize(permission.All(), Credentials{Cookie: access}); d.Outcome != NeedsRefresh || !errors.Is(d.Err, ErrAccessExpires) {
		t.Fatalf("expired token: %+v", d)
	}
}

func TestRoleFilterRefreshesExpiredAccess(t *testing.T) {
	env := newTestEnv(t, nil)
	refresh, access := issuePair(t, env, "u-1", permission.RoleClient)
	env.clock.Advance(5 * time.Minute)

	r := requestWith(map[string]string{"refresh": refresh, "access": access}, "")
	rec := httptest.NewRecorder()
	claims, err := env.engine.RoleFilter(context.Background(), rec, r, permission.AtLeast(permission.RoleClient)...)
	if err != nil {
		t.Fatalf("RoleFilter: %v", err)
	}
	if claims.Subject != "u-1" || claims.ExpiresAt != env.clock.Now().Add(2*time.Minute).Unix() {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if next := cookieFrom(t, rec, "refresh").Value; next == refresh {
		t.Fatal("expected rotated refresh cookie")
	}
}

func TestRoleFilterRefreshesMissingAccess(t *testing.T) {
	env := newTestEnv(t, nil)
	refresh, _ := issuePair(t, env, "u-1", permission.RoleClient)

	r := requestWith(map[string]string{"refresh": refresh}, "")
	if _, err := env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.RoleClient); err != nil {
		t.Fatalf("RoleFilter: %v", err)
	}
}

func TestRoleFilterDeniedDoesNotRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	refresh, access := issuePair(t, env, "u-1", permission.RoleClient)

	r := requestWith(map[string]string{"refresh": refresh, "access": access}, "")
	_, err := env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.RoleAdmin)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}

	r = requestWith(map[string]string{"refresh": refresh, "access": "tampered"}, "")
	if _, err := env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.RoleClient); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}

	if keys := env.refreshKeys(); len(keys) != 1 || keys[0] != refresh+",u-1" {
		t.Fatalf("denied requests must not consume the refresh record, got %v", keys)
	}
}

func TestRoleFilterDoesNotReuseBearerAccessAsRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	_, access := issuePair(t, env, "u-1", permission.RoleClient)
	env.clock.Advance(5 * time.Minute)

	r := requestWith(nil, access)
	_, err := env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.RoleClient)
	if !errors.Is(err, ErrRefreshNotFound) {
		t.Fatalf("expected ErrRefreshNotFound, got %v", err)
	}
}

func TestRoleFilterChecksRoleAfterRefresh(t *testing.T) {
	env := newTestEnv(t, nil)
	refresh, _ := issuePair(t, env, "u-1", permission.RoleClient)

	r := requestWith(map[string]string{"refresh": refresh}, "")
	_, err := env.engine.RoleFilter(context.Background(), httptest.NewRecorder(), r, permission.RoleAdmin)
	if !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
}

func TestParseBearer(t *testing.T) {
	tests := map[string]string{
		"Bearer abc":    "abc",
		"bearer abc":    "abc",
		"BEARER  abc ":  "abc",
		"Basic abc":     "",
		"Bearer":        "",
		"abc":           "",
		"":              "",
		"Bearer a.b.c":  "a.b.c",
		" Bearer token": "token",
	}
	for in, want := range tests {
		if got := ParseBearer(in); got != want {
			t.Fatalf("ParseBearer(%q) = %q, want %q", in, got, want)
		}
	}
}
