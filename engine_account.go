package phoneauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth/internal/flows"
	"github.com/MrEthical07/phoneauth/users"
)

// SignUp registers a new account and starts its session.
//
// A role outside Config.Account.SignUpRoles fails with ErrInvalidRole. A
// taken phone or telegram id fails with ErrConflictPhone or
// ErrConflictTelegram and writes no cookies.
func (e *Engine) SignUp(ctx context.Context, w http.ResponseWriter, req SignUpRequest) (*AccessClaims, error) {
	if e == nil || e.userStore == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	role := req.Role
	if role == "" {
		role = e.config.Account.DefaultRole
	}
	user := users.User{
		Phone:      req.Phone,
		Role:       role,
		TelegramID: req.TelegramID,
		FirstName:  req.FirstName,
		Surname:    req.Surname,
		Patronymic: req.Patronymic,
		Gender:     req.Gender,
		Birthdate:  req.Birthdate,
	}

	res := flows.RunSignUp(ctx, user, req.Password, e.flowDeps.SignUp)
	switch res.Failure {
	case flows.SignUpFailureNone:
	case flows.SignUpFailureInvalidRole:
		return nil, ErrInvalidRole
	case flows.SignUpFailureHash:
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, res.Err)
	case flows.SignUpFailurePhoneTaken:
		e.metricInc(MetricSignUpDuplicate)
		return nil, ErrConflictPhone
	case flows.SignUpFailureTelegramTaken:
		e.metricInc(MetricSignUpDuplicate)
		return nil, ErrConflictTelegram
	default:
		e.logger.Error(ctx, "user create failed", "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	}

	e.metricInc(MetricSignUpSuccess)
	e.logger.Info(ctx, "user signed up", "user_id", res.User.ID, "role", res.User.Role)
	return e.CreateTokens(ctx, w, res.User.ID, res.User.Role)
}

// SignIn verifies phone and password and starts a session with the stored
// role. Unknown phones and wrong passwords both fail with
// ErrInvalidCredentials and count against the attempt budget.
func (e *Engine) SignIn(ctx context.Context, w http.ResponseWriter, phone, plaintext string) (*AccessClaims, error) {
	if e == nil || e.userStore == nil || e.passwordHash == nil {
		return nil, ErrEngineNotReady
	}

	start := time.Now()
	res := flows.RunSignIn(ctx, phone, plaintext, clientIPFromContext(ctx), e.flowDeps.SignIn)
	e.metrics.Observe(MetricSignInLatency, time.Since(start))

	switch res.Failure {
	case flows.SignInFailureNone:
	case flows.SignInFailureRateLimited:
		e.metricInc(MetricSignInRateLimited)
		e.logger.Warn(ctx, "sign-in rate limited", "phone", phone)
		return nil, ErrSignInRateLimited
	case flows.SignInFailureInvalidCredentials:
		e.metricInc(MetricSignInFailure)
		return nil, ErrInvalidCredentials
	case flows.SignInFailureCorruptHash:
		e.metricInc(MetricSignInFailure)
		e.logger.Error(ctx, "stored password hash unreadable", "phone", phone, "error", res.Err)
		return nil, ErrInvalidCredentials
	case flows.SignInFailureLimiter:
		e.logger.Error(ctx, "sign-in limiter failed", "error", res.Err)
		return nil, res.Err
	default:
		e.logger.Error(ctx, "user lookup failed", "error", res.Err)
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, res.Err)
	}

	e.metricInc(MetricSignInSuccess)
	return e.CreateTokens(ctx, w, res.User.ID, res.User.Role)
}

// Profile returns the stored account of userID without its password hash.
func (e *Engine) Profile(ctx context.Context, userID string) (*users.User, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	u, err := e.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, userStoreError(err)
	}
	u.PasswordHash = ""
	return u, nil
}

// UpdateProfile applies the non-nil fields of upd to userID's account.
func (e *Engine) UpdateProfile(ctx context.Context, userID string, upd users.ProfileUpdate) (*users.User, error) {
	if e == nil || e.userStore == nil {
		return nil, ErrEngineNotReady
	}
	if upd.Gender != nil && !upd.Gender.Valid() {
		return nil, ErrInvalidInput
	}
	u, err := e.userStore.Update(ctx, userID, upd)
	if err != nil {
		return nil, userStoreError(err)
	}
	u.PasswordHash = ""
	return u, nil
}

func userStoreError(err error) error {
	switch {
	case errors.Is(err, users.ErrNotFound):
		return ErrUserNotFound
	case errors.Is(err, users.ErrTelegramTaken):
		return ErrConflictTelegram
	case errors.Is(err, users.ErrPhoneTaken):
		return ErrConflictPhone
	default:
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
}
