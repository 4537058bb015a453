package flows

import (
	"context"
	"errors"
	"testing"

	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users"
)

var errLimited = errors.New("limited")

type countingLimiter struct {
	blocked  bool
	failures int
	resets   int
}

func (l *countingLimiter) CheckSignIn(context.Context, string, string) error {
	if l.blocked {
		return errLimited
	}
	return nil
}

func (l *countingLimiter) IncrementSignIn(context.Context, string, string) error {
	l.failures++
	return nil
}

func (l *countingLimiter) ResetSignIn(context.Context, string) error {
	l.resets++
	return nil
}

func signUpDeps(repo *users.MemoryRepository) SignUpDeps {
	return SignUpDeps{
		Users:        repo,
		HashPassword: func(p string) (string, error) { return "h(" + p + "):salt", nil },
		AllowedRoles: []permission.Role{permission.RoleClient},
	}
}

func TestRunSignUp(t *testing.T) {
	repo := users.NewMemoryRepository()
	ctx := context.Background()

	res := RunSignUp(ctx, users.User{Phone: "79991234567", Role: permission.RoleClient}, "p@ss", signUpDeps(repo))
	if res.Failure != SignUpFailureNone || res.User.PasswordHash != "h(p@ss):salt" {
		t.Fatalf("unexpected result %+v", res)
	}

	dup := RunSignUp(ctx, users.User{Phone: "79991234567", Role: permission.RoleClient}, "p@ss", signUpDeps(repo))
	if dup.Failure != SignUpFailurePhoneTaken {
		t.Fatalf("expected phone taken, got %v", dup.Failure)
	}

	admin := RunSignUp(ctx, users.User{Phone: "1234", Role: permission.RoleAdmin}, "p@ss", signUpDeps(repo))
	if admin.Failure != SignUpFailureInvalidRole {
		t.Fatalf("self-registration as ADMIN must be rejected, got %v", admin.Failure)
	}
}

func TestRunSignIn(t *testing.T) {
	repo := users.NewMemoryRepository()
	ctx := context.Background()
	if _, err := repo.Create(ctx, &users.User{Phone: "1234", PasswordHash: "good", Role: permission.RoleClient}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	lim := &countingLimiter{}
	deps := SignInDeps{
		Users:          repo,
		VerifyPassword: func(plain, encoded string) (bool, error) { return plain == encoded, nil },
		Limiter:        lim,
		RateLimited:    errLimited,
	}

	if res := RunSignIn(ctx, "1234", "bad", "", deps); res.Failure != SignInFailureInvalidCredentials {
		t.Fatalf("wrong password: got %v", res.Failure)
	}
	if res := RunSignIn(ctx, "0000", "good", "", deps); res.Failure != SignInFailureInvalidCredentials {
		t.Fatalf("unknown phone: got %v", res.Failure)
	}
	if lim.failures != 2 {
		t.Fatalf("expected 2 recorded failures, got %d", lim.failures)
	}

	res := RunSignIn(ctx, "1234", "good", "", deps)
	if res.Failure != SignInFailureNone || res.User == nil || lim.resets != 1 {
		t.Fatalf("expected success with reset, got %+v resets=%d", res, lim.resets)
	}

	lim.blocked = true
	if res := RunSignIn(ctx, "1234", "good", "", deps); res.Failure != SignInFailureRateLimited {
		t.Fatalf("expected rate limited, got %v", res.Failure)
	}
}

func TestRunSignInCorruptHash(t *testing.T) {
	repo := users.NewMemoryRepository()
	ctx := context.Background()
	if _, err := repo.Create(ctx, &users.User{Phone: "1234", PasswordHash: "x", Role: permission.RoleClient}); err != nil {
		t.Fatalf("seed: %v", err)
	}
	deps := SignInDeps{
		Users:          repo,
		VerifyPassword: func(string, string) (bool, error) { return false, errors.New("malformed") },
	}
	if res := RunSignIn(ctx, "1234", "p", "", deps); res.Failure != SignInFailureCorruptHash {
		t.Fatalf("expected corrupt hash failure, got %v", res.Failure)
	}
}
