package user

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/gradebook/core"
)

// Roles
const (
	RoleTeacher = "teacher"
	RoleAdmin   = "admin"
)

type User struct {
	ID             int                 `json:"id" db:"id"`
	Username       string              `json:"username" db:"username"`
	Email          string              `json:"email" db:"email"`
	PasswordHash   []byte              `json:"-" db:"password"`
	Role           string              `json:"role" db:"role"`
	EducationLevel core.EducationLevel `json:"education_level" db:"education_level"`
	CreatedAt      time.Time           `json:"created_at" db:"created_at"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Scope returns the visibility Scope of the user.
func (u *User) Scope() core.Scope {
	return core.Scope{
		UserID:         u.ID,
		Username:       u.Username,
		IsAdmin:        u.IsAdmin(),
		EducationLevel: u.EducationLevel,
	}
}

// NewUser contains information needed to sign up a new teacher.
type NewUser struct {
	Username        string `form:"username" validate:"required,max=150"`
	Email           string `form:"email" validate:"required,email"`
	Password        string `form:"password" validate:"required"`
	PasswordConfirm string `form:"confirm_password" validate:"required,eqfield=Password"`
	EducationLevel  string `form:"education_level" validate:"edulevel"`
}

func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.EducationLevel = string(core.ParseEducationLevel(nu.EducationLevel, core.Primary))
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, nu.Username, nu.Email)
}

// UpdateProfile defines what a user may change on their own profile.
// An empty Password keeps the current one.
type UpdateProfile struct {
	Username       string `form:"username" validate:"required,max=150"`
	Email          string `form:"email" validate:"required,email"`
	EducationLevel string `form:"education_level" validate:"edulevel"`
	Password       string `form:"password"`
}

func (up *UpdateProfile) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	up.Username = core.CleanString(up.Username, true /* lower */)
	up.Email = core.CleanString(up.Email, true /* lower */)
	up.EducationLevel = string(core.ParseEducationLevel(up.EducationLevel, core.Secondary))
	up.Password = core.CleanString(up.Password)

	if err := validate.Struct(up); err != nil {
		return err
	}
	return svc.checkUniqueness(ctx, up.Username, up.Email, origUsr)
}

// GetFilter selects a single user; the first non-empty field wins.
type GetFilter struct {
	ID              int
	Username        string
	UsernameOrEmail string
}
