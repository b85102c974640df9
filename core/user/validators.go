package user

import (
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/Shin40411/Lms-client/core"
)

var (
	// password policy
	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to user attributes"

	profileTag  = "profile"
	profileText = "invalid profile"
)

// InitValidators registers the user validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	validate.RegisterStructValidation(formStructValidation, Form{})
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, profileTag, profileText)
}

// Validate cleans the form then validates it, profile included.
// The profile is validated against its own variant only.
func (f *Form) Validate(validate *validator.Validate) error {
	f.clean()

	var verrs validator.ValidationErrors
	if err := validate.Struct(f); err != nil {
		ves, ok := err.(validator.ValidationErrors)
		if !ok {
			return err
		}
		verrs = append(verrs, ves...)
	}
	switch f.Profile.Profile.(type) {
	case TeacherProfile, StudentProfile:
		if err := validate.Struct(f.Profile.Profile); err != nil {
			ves, ok := err.(validator.ValidationErrors)
			if !ok {
				return err
			}
			verrs = append(verrs, ves...)
		}
	}
	if len(verrs) > 0 {
		return verrs
	}
	return nil
}

// formStructValidation does struct level validation on Form.
func formStructValidation(sl validator.StructLevel) {
	f, ok := sl.Current().Interface().(Form)
	if !ok {
		return
	}
	switch f.Profile.Profile.(type) {
	case nil, NoProfile, TeacherProfile, StudentProfile:
	default:
		sl.ReportError(f.Profile, "profile", "Profile", profileTag, "")
	}
	if f.Password != "" {
		validatePassword(f.Password, f.FirstName+" "+f.LastName, f.Username, f.Email, sl)
	}
}

// validatePassword complements the min length rule of the form:
// - no whitespace
// - no user attrs similarity
func validatePassword(pwd, name, uname, email string, sl validator.StructLevel) {
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	for _, char := range pwd {
		if unicode.IsSpace(char) {
			reportErr(pwdNoSpaceTag)
			return
		}
	}

	getRatio := func(pass, usrAttr string) float64 {
		usrAttr = strings.TrimSpace(usrAttr)
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(usrAttr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim ||
		getRatio(pwd, uname) >= pwdMaxSim ||
		getRatio(pwd, email) >= pwdMaxSim {
		reportErr(pwdAttrSimTag)
	}
}
