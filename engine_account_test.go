package phoneauth

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users"
)

func signUp(t *testing.T, env *testEnv, phone, pw string) *AccessClaims {
	t.Helper()
	claims, err := env.engine.SignUp(context.Background(), httptest.NewRecorder(), SignUpRequest{Phone: phone, Password: pw})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	return claims
}

func TestSignUpIssuesTokensWithDefaultRole(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := httptest.NewRecorder()

	claims, err := env.engine.SignUp(context.Background(), rec, SignUpRequest{Phone: "79991234567", Password: "p@ss"})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if claims.Role != permission.RoleClient {
		t.Fatalf("expected default CLIENT role, got %q", claims.Role)
	}
	cookieFrom(t, rec, "refresh")
	cookieFrom(t, rec, "access")

	u, err := env.users.GetByPhone(context.Background(), "79991234567")
	if err != nil {
		t.Fatalf("stored user: %v", err)
	}
	if u.ID != claims.Subject || u.PasswordHash == "" || u.PasswordHash == "p@ss" {
		t.Fatalf("unexpected stored user %+v", u)
	}
}

func TestSignUpConflictsAndRoles(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	tg := int64(42)

	if _, err := env.engine.SignUp(ctx, nil, SignUpRequest{Phone: "1000", Password: "p", TelegramID: &tg}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	rec := httptest.NewRecorder()
	_, err := env.engine.SignUp(ctx, rec, SignUpRequest{Phone: "1000", Password: "p"})
	if !errors.Is(err, ErrConflictPhone) {
		t.Fatalf("expected ErrConflictPhone, got %v", err)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Fatal("failed sign-up must not set cookies")
	}

	if _, err := env.engine.SignUp(ctx, nil, SignUpRequest{Phone: "2000", Password: "p", TelegramID: &tg}); !errors.Is(err, ErrConflictTelegram) {
		t.Fatalf("expected ErrConflictTelegram, got %v", err)
	}
	if _, err := env.engine.SignUp(ctx, nil, SignUpRequest{Phone: "3000", Password: "p", Role: permission.RoleAdmin}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if _, err := env.engine.SignUp(ctx, nil, SignUpRequest{Phone: "4000", Password: ""}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput for empty password, got %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricSignUpDuplicate]; got != 2 {
		t.Fatalf("duplicate counter: %d", got)
	}
}

func TestSignUpAllowsConfiguredRoles(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.Account.SignUpRoles = []permission.Role{permission.RoleClient, permission.RoleManager}
	})
	claims, err := env.engine.SignUp(context.Background(), nil, SignUpRequest{Phone: "1000", Password: "p", Role: permission.RoleManager})
	if err != nil {
		t.Fatalf("SignUp: %v", err)
	}
	if claims.Role != permission.RoleManager {
		t.Fatalf("got role %q", claims.Role)
	}
}

func TestSignInSuccessEvictsOtherSession(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	first := httptest.NewRecorder()
	if _, err := env.engine.SignUp(ctx, first, SignUpRequest{Phone: "79991234567", Password: "p@ss"}); err != nil {
		t.Fatalf("SignUp: %v", err)
	}

	rec := httptest.NewRecorder()
	claims, err := env.engine.SignIn(ctx, rec, "79991234567", "p@ss")
	if err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if claims.Role != permission.RoleClient {
		t.Fatalf("unexpected role %q", claims.Role)
	}
	if keys := env.refreshKeys(); len(keys) != 1 || keys[0] != cookieFrom(t, rec, "refresh").Value+","+claims.Subject {
		t.Fatalf("expected only the new record, got %v", keys)
	}
	if _, err := env.engine.UpdateTokens(ctx, nil, Credentials{Cookie: cookieFrom(t, first, "refresh").Value}); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("sign-up session must be evicted, got %v", err)
	}
}

func TestSignInFailures(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	signUp(t, env, "1000", "right")

	if _, err := env.engine.SignIn(ctx, nil, "1000", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password: %v", err)
	}
	if _, err := env.engine.SignIn(ctx, nil, "9999", "right"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown phone: %v", err)
	}
	if got := env.engine.MetricsSnapshot().Counters[MetricSignInFailure]; got != 2 {
		t.Fatalf("failure counter: %d", got)
	}
}

func TestSignInRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Security.MaxSignInAttempts = 3 })
	ctx := context.Background()
	signUp(t, env, "1000", "right")

	for i := 0; i < 3; i++ {
		if _, err := env.engine.SignIn(ctx, nil, "1000", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: %v", i, err)
		}
	}
	_, err := env.engine.SignIn(ctx, nil, "1000", "right")
	if !errors.Is(err, ErrSignInRateLimited) {
		t.Fatalf("expected ErrSignInRateLimited, got %v", err)
	}
	if StatusCode(err) != 429 {
		t.Fatalf("status: %d", StatusCode(err))
	}
}

func TestSignInSuccessResetsBudget(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.Security.MaxSignInAttempts = 2 })
	ctx := context.Background()
	signUp(t, env, "1000", "right")

	if _, err := env.engine.SignIn(ctx, nil, "1000", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong: %v", err)
	}
	if _, err := env.engine.SignIn(ctx, nil, "1000", "right"); err != nil {
		t.Fatalf("right: %v", err)
	}
	if _, err := env.engine.SignIn(ctx, nil, "1000", "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("budget must be reset after success, got %v", err)
	}
}

func TestProfileAndUpdateProfile(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	claims := signUp(t, env, "1000", "p")
	other := signUp(t, env, "2000", "p")

	u, err := env.engine.Profile(ctx, claims.Subject)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if u.Phone != "1000" || u.PasswordHash != "" {
		t.Fatalf("unexpected profile %+v", u)
	}

	name := "Ivan"
	tg := int64(7)
	updated, err := env.engine.UpdateProfile(ctx, claims.Subject, users.ProfileUpdate{FirstName: &name, TelegramID: &tg})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.FirstName == nil || *updated.FirstName != "Ivan" || updated.PasswordHash != "" {
		t.Fatalf("unexpected update %+v", updated)
	}

	if _, err := env.engine.UpdateProfile(ctx, other.Subject, users.ProfileUpdate{TelegramID: &tg}); !errors.Is(err, ErrConflictTelegram) {
		t.Fatalf("expected ErrConflictTelegram, got %v", err)
	}
	bad := users.Gender("X")
	if _, err := env.engine.UpdateProfile(ctx, claims.Subject, users.ProfileUpdate{Gender: &bad}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if _, err := env.engine.Profile(ctx, "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("expected ErrUserNotFound, got %v", err)
	}
}

func TestStatusCodeAndPublicMessage(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{ErrRefreshNotFound, 404, "Refresh token not found."},
		{ErrAccessNotFound, 404, "Access token not found."},
		{ErrRefreshExpires, 410, "Refresh token was expired."},
		{ErrAccessExpires, 410, "Access token was expired."},
		{ErrInvalidCredentials, 403, "Invalid credentials."},
		{ErrInvalidRole, 400, "The user role doesn't allow you to get this."},
		{ErrConflictPhone, 409, "Phone number already used another user."},
		{ErrConflictTelegram, 409, "Telegram already used another user."},
		{ErrSignInRateLimited, 429, "Too many sign-in attempts."},
		{ErrUserNotFound, 404, "User not found."},
		{ErrRedisUnavailable, 500, "Internal server error."},
		{errors.New("boom"), 500, "Internal server error."},
	}
	for _, tc := range tests {
		if got := StatusCode(tc.err); got != tc.status {
			t.Fatalf("StatusCode(%v) = %d, want %d", tc.err, got, tc.status)
		}
		if got := PublicMessage(tc.err); got != tc.msg {
			t.Fatalf("PublicMessage(%v) = %q, want %q", tc.err, got, tc.msg)
		}
	}
}
