package phoneauth

import (
	"errors"
	"net/http"

	"github.com/MrEthical07/phoneauth/session"
)

var (
	// ErrRefreshNotFound is returned when a request carries no refresh token.
	ErrRefreshNotFound = errors.New("refresh token not found")
	// ErrRefreshExpires is part of the public taxonomy. An expired refresh
	// record is indistinguishable from a missing one, so rotation reports
	// ErrInvalidCredentials instead.
	ErrRefreshExpires = errors.New("refresh token was expired")
	// ErrAccessNotFound is returned when a request carries no access token.
	ErrAccessNotFound = errors.New("access token not found")
	// ErrAccessExpires is returned for a well-signed access token past exp.
	ErrAccessExpires = errors.New("access token was expired")
	// ErrInvalidCredentials covers bad signatures, unknown refresh tokens,
	// unknown phones and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInvalidRole is returned when the caller's role is not allowed, or a
	// sign-up requests a role that cannot self-register.
	ErrInvalidRole = errors.New("the user role doesn't allow you to get this")
	ErrConflictPhone    = errors.New("phone number already used by another user")
	ErrConflictTelegram = errors.New("telegram already used by another user")
	// ErrSignInRateLimited is returned while the sign-in budget is exhausted.
	ErrSignInRateLimited = errors.New("sign-in rate limited")
	ErrUserNotFound      = errors.New("user not found")
	// ErrInvalidInput marks a request body that failed validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrRedisUnavailable wraps session store transport failures.
	ErrRedisUnavailable = session.ErrRedisUnavailable
	// ErrStoreUnavailable wraps user repository failures.
	ErrStoreUnavailable = errors.New("user store unavailable")
	// ErrEngineNotReady is returned by methods on a nil or partially built Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
)

// StatusCode maps err to the HTTP status the API responds with. Unknown
// errors are 500.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, ErrRefreshNotFound),
		errors.Is(err, ErrAccessNotFound),
		errors.Is(err, ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrRefreshExpires),
		errors.Is(err, ErrAccessExpires):
		return http.StatusGone
	case errors.Is(err, ErrInvalidCredentials):
		return http.StatusForbidden
	case errors.Is(err, ErrInvalidRole):
		return http.StatusBadRequest
	case errors.Is(err, ErrConflictPhone),
		errors.Is(err, ErrConflictTelegram):
		return http.StatusConflict
	case errors.Is(err, ErrSignInRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, ErrInvalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

var publicMessages = map[error]string{
	ErrRefreshNotFound:    "Refresh token not found.",
	ErrRefreshExpires:     "Refresh token was expired.",
	ErrAccessNotFound:     "Access token not found.",
	ErrAccessExpires:      "Access token was expired.",
	ErrInvalidCredentials: "Invalid credentials.",
	ErrInvalidRole:        "The user role doesn't allow you to get this.",
	ErrConflictPhone:      "Phone number already used another user.",
	ErrConflictTelegram:   "Telegram already used another user.",
	ErrSignInRateLimited:  "Too many sign-in attempts.",
	ErrUserNotFound:       "User not found.",
	ErrInvalidInput:       "Incorrect input.",
}

// PublicMessage returns the client-facing detail for err. Internal errors
// never leak their text.
func PublicMessage(err error) string {
	for sentinel, msg := range publicMessages {
		if errors.Is(err, sentinel) {
			return msg
		}
	}
	return "Internal server error."
}
