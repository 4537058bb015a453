package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when no live user matches the lookup key.
	ErrNotFound = errors.New("user not found")
	// ErrPhoneTaken is returned when the phone number is already registered.
	ErrPhoneTaken = errors.New("phone already registered")
	// ErrTelegramTaken is returned when the telegram id belongs to another user.
	ErrTelegramTaken = errors.New("telegram id already registered")
)

// Repository persists user identity and credentials.
type Repository interface {
	Create(ctx context.Context, user *User) (*User, error)
	GetByID(ctx context.Context, id string) (*User, error)
	GetByPhone(ctx context.Context, phone string) (*User, error)
	GetByTelegramID(ctx context.Context, telegramID int64) (*User, error)
	Update(ctx context.Context, id string, upd ProfileUpdate) (*User, error)
}
