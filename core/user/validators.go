package user

import (
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/gradebook/core"
)

var (
	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your username or email"
)

// RegisterValidators adds the user struct validations to validate.
// Signup only checks the confirmation; a new password chosen on profile edit must also differ
// enough from the username & email.
func RegisterValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(profileStructValidation, UpdateProfile{})
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

func profileStructValidation(sl validator.StructLevel) {
	if up, ok := sl.Current().Interface().(UpdateProfile); ok {
		validatePassword(up.Password, up.Username, up.Email, sl)
	}
}

// validatePassword rejects passwords too similar to the user attributes.
func validatePassword(pwd, uname, email string, sl validator.StructLevel) {
	if pwd == "" {
		return
	}
	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, uname) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		sl.ReportError(pwd, "password", "Password", pwdAttrSimTag, "")
	}
}
