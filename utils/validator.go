package utils

import (
	"reflect"
	"strings"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"

	"lmsportal_go/models"
)

var (
	Validate   *validator.Validate
	Translator ut.Translator
)

// Instantiate the validator for use.
func init() {
	Validate = validator.New()

	// Register the english error messages for validation errors.
	_en := en.New()
	uni := ut.New(_en, _en)
	Translator, _ = uni.GetTranslator("en")
	_ = en_translations.RegisterDefaultTranslations(Validate, Translator)

	// Use JSON tag names for errors instead of Go struct names.
	Validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	// register custom validators
	_ = Validate.RegisterValidation("role", roleValidation)
	RegisterCustomTranslation("role", "must be one of admin, teacher, student, staff")
	_ = Validate.RegisterValidation("attendance_status", attendanceStatusValidation)
	RegisterCustomTranslation("attendance_status", "must be one of present, absent, late, excused")
	_ = Validate.RegisterValidation("assignment_type", assignmentTypeValidation)
	RegisterCustomTranslation("assignment_type", "must be one of homework, project, quiz, test, exam")
	_ = Validate.RegisterValidation("gender", genderValidation)
	RegisterCustomTranslation("gender", "must be one of M, F, O")
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = Validate.RegisterTranslation(
		tag, Translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// ValidateStruct runs the registered rules over s and returns a field→message
// map keyed by JSON names, or nil when everything passed.
func ValidateStruct(s interface{}) map[string]string {
	err := Validate.Struct(s)
	if err == nil {
		return nil
	}
	errs, ok := err.(validator.ValidationErrors)
	if !ok {
		return map[string]string{"non_field": err.Error()}
	}
	fields := make(map[string]string, len(errs))
	for _, fe := range errs {
		fields[fe.Field()] = fe.Translate(Translator)
	}
	return fields
}

// Custom Global Validators

// roleValidation only allows the known account roles.
func roleValidation(fl validator.FieldLevel) bool {
	return models.Role(fl.Field().String()).Valid()
}

// attendanceStatusValidation only allows the known attendance statuses.
func attendanceStatusValidation(fl validator.FieldLevel) bool {
	return IsValidAttendanceStatus(fl.Field().String())
}

// assignmentTypeValidation only allows the known assignment types.
func assignmentTypeValidation(fl validator.FieldLevel) bool {
	return IsValidAssignmentType(fl.Field().String())
}

// genderValidation only allows the known gender codes.
func genderValidation(fl validator.FieldLevel) bool {
	return IsValidGender(fl.Field().String())
}
