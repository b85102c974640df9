package classroom

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

	"github.com/Shin40411/Lms-client/core"
)

var (
	gradeTag  = "grade"
	gradeText = "invalid grade"
)

// InitValidators registers the classroom validators on validate.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(gradeTag, gradeValidation)
	core.RegisterCustomTranslation(validate, translator, gradeTag, gradeText)
}

func gradeValidation(fl validator.FieldLevel) bool {
	g := fl.Field().String()
	for _, grade := range Grades {
		if g == grade {
			return true
		}
	}
	return false
}

// validateFirstStep validates the fields shown before the member step.
func validateFirstStep(validate *validator.Validate, info *Info) error {
	info.clean()
	return validate.StructPartial(info, "Name", "Description", "Grade", "HomeroomTeacherID")
}

func validateInfo(validate *validator.Validate, info *Info) error {
	info.clean()
	return validate.Struct(info)
}
