package users

import (
	"time"

	"github.com/MrEthical07/phoneauth/permission"
)

// Gender mirrors the genders lookup table.
type Gender string

const (
	GenderMale   Gender = "M"
	GenderFemale Gender = "F"
)

// Valid reports whether g is a known gender code.
func (g Gender) Valid() bool {
	return g == GenderMale || g == GenderFemale
}

// User is a stored account. PasswordHash is the "digest:salt" string produced
// by the password package.
type User struct {
	ID           string
	Phone        string
	PasswordHash string
	Role         permission.Role
	TelegramID   *int64
	FirstName    *string
	Surname      *string
	Patronymic   *string
	Gender       *Gender
	Birthdate    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProfileUpdate holds the optional profile fields a user may change. Nil
// fields are left untouched.
type ProfileUpdate struct {
	TelegramID *int64
	FirstName  *string
	Surname    *string
	Patronymic *string
	Gender     *Gender
	Birthdate  *time.Time
}

// Apply copies the non-nil fields of p onto u.
func (p ProfileUpdate) Apply(u *User) {
	if p.TelegramID != nil {
		u.TelegramID = p.TelegramID
	}
	if p.FirstName != nil {
		u.FirstName = p.FirstName
	}
	if p.Surname != nil {
		u.Surname = p.Surname
	}
	if p.Patronymic != nil {
		u.Patronymic = p.Patronymic
	}
	if p.Gender != nil {
		u.Gender = p.Gender
	}
	if p.Birthdate != nil {
		u.Birthdate = p.Birthdate
	}
}
