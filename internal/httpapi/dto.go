package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/MrEthical07/phoneauth"
	"github.com/MrEthical07/phoneauth/permission"
	"github.com/MrEthical07/phoneauth/users"
	"github.com/go-playground/validator/v10"
)

const dateLayout = "2006-01-02"

// maxBodyBytes caps request bodies.
const maxBodyBytes = 64 << 10

var validate = validator.New()

type signUpBody struct {
	Phone      string  `json:"phone" validate:"required,numeric,min=4,max=15"`
	Password   string  `json:"password" validate:"required,max=1024"`
	Role       string  `json:"role" validate:"omitempty,oneof=CLIENT MANAGER ADMIN"`
	TelegramID *int64  `json:"tg_id" validate:"omitempty,gt=0"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=64"`
	Surname    *string `json:"surname" validate:"omitempty,max=64"`
	Patronymic *string `json:"patronymic" validate:"omitempty,max=64"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=M F"`
	Birthdate  *string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
}

func (b signUpBody) request() phoneauth.SignUpRequest {
	return phoneauth.SignUpRequest{
		Phone:      b.Phone,
		Password:   b.Password,
		Role:       permission.Role(b.Role),
		TelegramID: b.TelegramID,
		FirstName:  b.FirstName,
		Surname:    b.Surname,
		Patronymic: b.Patronymic,
		Gender:     gender(b.Gender),
		Birthdate:  date(b.Birthdate),
	}
}

type signInBody struct {
	Phone    string `json:"phone" validate:"required,numeric,min=4,max=15"`
	Password string `json:"password" validate:"required,max=1024"`
}

type profileBody struct {
	TelegramID *int64  `json:"tg_id" validate:"omitempty,gt=0"`
	FirstName  *string `json:"first_name" validate:"omitempty,max=64"`
	Surname    *string `json:"surname" validate:"omitempty,max=64"`
	Patronymic *string `json:"patronymic" validate:"omitempty,max=64"`
	Gender     *string `json:"gender" validate:"omitempty,oneof=M F"`
	Birthdate  *string `json:"birthdate" validate:"omitempty,datetime=2006-01-02"`
}

func (b profileBody) update() users.ProfileUpdate {
	return users.ProfileUpdate{
		TelegramID: b.TelegramID,
		FirstName:  b.FirstName,
		Surname:    b.Surname,
		Patronymic: b.Patronymic,
		Gender:     gender(b.Gender),
		Birthdate:  date(b.Birthdate),
	}
}

type userResponse struct {
	ID         string  `json:"id"`
	Phone      string  `json:"phone"`
	Role       string  `json:"role"`
	TelegramID *int64  `json:"tg_id"`
	FirstName  *string `json:"first_name"`
	Surname    *string `json:"surname"`
	Patronymic *string `json:"patronymic"`
	Gender     *string `json:"gender"`
	Birthdate  *string `json:"birthdate"`
}

func newUserResponse(u *users.User) userResponse {
	out := userResponse{
		ID:         u.ID,
		Phone:      u.Phone,
		Role:       string(u.Role),
		TelegramID: u.TelegramID,
		FirstName:  u.FirstName,
		Surname:    u.Surname,
		Patronymic: u.Patronymic,
	}
	if u.Gender != nil {
		g := string(*u.Gender)
		out.Gender = &g
	}
	if u.Birthdate != nil {
		d := u.Birthdate.Format(dateLayout)
		out.Birthdate = &d
	}
	return out
}

type detailBody struct {
	Detail string `json:"detail"`
}

// decode reads a JSON body into dst and validates it. Any failure is
// reported as phoneauth.ErrInvalidInput.
func decode(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", phoneauth.ErrInvalidInput, err)
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", phoneauth.ErrInvalidInput, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func gender(v *string) *users.Gender {
	if v == nil {
		return nil
	}
	g := users.Gender(*v)
	return &g
}

// date converts a value already checked by the datetime validator.
func date(v *string) *time.Time {
	if v == nil {
		return nil
	}
	t, err := time.Parse(dateLayout, *v)
	if err != nil {
		return nil
	}
	return &t
}
