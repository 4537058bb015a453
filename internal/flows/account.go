package flows

import (
	"context"
	"errors"

	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users"
)

// SignUpFailureKind classifies sign-up failures for root-level mapping.
type SignUpFailureKind int

const (
	SignUpFailureNone SignUpFailureKind = iota
	SignUpFailureInvalidRole
	SignUpFailureHash
	SignUpFailurePhoneTaken
	SignUpFailureTelegramTaken
	SignUpFailureStore
)

// SignUpResult is the tagged outcome of RunSignUp.
type SignUpResult struct {
	Failure SignUpFailureKind
	Err     error
	User    *users.User
}

// AccountUserStore is the user lookup and insert surface the account flows need.
type AccountUserStore interface {
	Create(ctx context.Context, user *users.User) (*users.User, error)
	GetByPhone(ctx context.Context, phone string) (*users.User, error)
}

// SignUpDeps captures account creation dependencies.
type SignUpDeps struct {
	Users        AccountUserStore
	HashPassword func(string) (string, error)
	AllowedRoles []permission.Role
}

// RunSignUp validates the requested role, hashes the password and persists
// the user. The caller issues tokens on success.
func RunSignUp(ctx context.Context, user users.User, plaintext string, deps SignUpDeps) SignUpResult {
	if !user.Role.Valid() || !permission.Allowed(user.Role, deps.AllowedRoles) {
		return SignUpResult{Failure: SignUpFailureInvalidRole}
	}

	hash, err := deps.HashPassword(plaintext)
	if err != nil {
		return SignUpResult{Failure: SignUpFailureHash, Err: err}
	}
	user.PasswordHash = hash

	created, err := deps.Users.Create(ctx, &user)
	switch {
	case err == nil:
		return SignUpResult{User: created}
	case errors.Is(err, users.ErrPhoneTaken):
		return SignUpResult{Failure: SignUpFailurePhoneTaken, Err: err}
	case errors.Is(err, users.ErrTelegramTaken):
		return SignUpResult{Failure: SignUpFailureTelegramTaken, Err: err}
	default:
		return SignUpResult{Failure: SignUpFailureStore, Err: err}
	}
}

// SignInFailureKind classifies sign-in failures for root-level mapping.
type SignInFailureKind int

const (
	SignInFailureNone SignInFailureKind = iota
	SignInFailureRateLimited
	SignInFailureInvalidCredentials
	SignInFailureLimiter
	SignInFailureStore
	SignInFailureCorruptHash
)

// SignInResult is the tagged outcome of RunSignIn.
type SignInResult struct {
	Failure SignInFailureKind
	Err     error
	User    *users.User
}

// SignInLimiter enforces the per-phone and per-IP sign-in attempt budget.
type SignInLimiter interface {
	CheckSignIn(ctx context.Context, phone, ip string) error
	IncrementSignIn(ctx context.Context, phone, ip string) error
	ResetSignIn(ctx context.Context, phone string) error
}

// SignInDeps captures credential verification dependencies.
type SignInDeps struct {
	Users          AccountUserStore
	VerifyPassword func(plain, encoded string) (bool, error)
	Limiter        SignInLimiter
	RateLimited    error
	Warn           func(string, ...any)
}

// RunSignIn checks the attempt budget, looks the user up by phone and
// verifies the password. Unknown phone and wrong password are one failure.
func RunSignIn(ctx context.Context, phone, plaintext, ip string, deps SignInDeps) SignInResult {
	if deps.Limiter != nil {
		if err := deps.Limiter.CheckSignIn(ctx, phone, ip); err != nil {
			if errors.Is(err, deps.RateLimited) {
				return SignInResult{Failure: SignInFailureRateLimited, Err: err}
			}
			return SignInResult{Failure: SignInFailureLimiter, Err: err}
		}
	}

	user, err := deps.Users.GetByPhone(ctx, phone)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			recordFailure(ctx, phone, ip, deps)
			return SignInResult{Failure: SignInFailureInvalidCredentials, Err: err}
		}
		return SignInResult{Failure: SignInFailureStore, Err: err}
	}

	ok, err := deps.VerifyPassword(plaintext, user.PasswordHash)
	if err != nil {
		return SignInResult{Failure: SignInFailureCorruptHash, Err: err}
	}
	if !ok {
		recordFailure(ctx, phone, ip, deps)
		return SignInResult{Failure: SignInFailureInvalidCredentials}
	}

	if deps.Limiter != nil {
		if err := deps.Limiter.ResetSignIn(ctx, phone); err != nil && deps.Warn != nil {
			deps.Warn("sign-in limiter reset failed", "error", err)
		}
	}

	return SignInResult{User: user}
}

func recordFailure(ctx context.Context, phone, ip string, deps SignInDeps) {
	if deps.Limiter == nil {
		return
	}
	if err := deps.Limiter.IncrementSignIn(ctx, phone, ip); err != nil && !errors.Is(err, deps.RateLimited) && deps.Warn != nil {
		deps.Warn("sign-in limiter increment failed", "error", err)
	}
}
