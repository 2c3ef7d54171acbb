package core

import (
	"reflect"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

var (
	// custom validation tags & texts
	alphaNumUnderTag   = "alphanum_"
	alphaNumUnderText  = "only alphanumeric characters and underscores are allowed"
	alphaNumUnderRegex = regexp.MustCompile(`^[\w\s]+$`)

	courseTag  = "course"
	courseText = "course must be one of 全, 水, 集"

	genderTag  = "gender"
	genderText = "gender must be one of 男, 女"

	isoDateTag  = "isodate"
	isoDateText = "date must be formatted as YYYY-MM-DD"

	requiredTag     = "required"
	requiredWithTag = "required_with"
	requiredText    = "this field is required"
)

// InitValidators instantiates the validator for use.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			name = strings.SplitN(fld.Tag.Get("query"), ",", 2)[0]
		}
		return name
	})

	// register custom validators
	_ = validate.RegisterValidation(alphaNumUnderTag, alphaNumUnderValidation)
	RegisterCustomTranslation(validate, translator, alphaNumUnderTag, alphaNumUnderText)

	_ = validate.RegisterValidation(courseTag, courseValidation)
	RegisterCustomTranslation(validate, translator, courseTag, courseText)

	_ = validate.RegisterValidation(genderTag, genderValidation)
	RegisterCustomTranslation(validate, translator, genderTag, genderText)

	_ = validate.RegisterValidation(isoDateTag, isoDateValidation)
	RegisterCustomTranslation(validate, translator, isoDateTag, isoDateText)

	RegisterCustomTranslation(validate, translator, requiredTag, requiredText, true)
	RegisterCustomTranslation(validate, translator, requiredWithTag, requiredText, true)
}

// RegisterCustomTranslation registers a custom translation for the specified validation tag.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	var ovrd bool
	if len(override) > 0 {
		ovrd = override[0]
	}
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, ovrd) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Custom Global Validators

// alphaNumUnderValidation only allows alphanumeric characters and underscores.
func alphaNumUnderValidation(fl validator.FieldLevel) bool {
	return alphaNumUnderRegex.MatchString(fl.Field().String())
}

// courseValidation only allows the course labels 全 (full time), 水 (wednesday) and 集 (intensive).
func courseValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "全", "水", "集":
		return true
	}
	return false
}

func genderValidation(fl validator.FieldLevel) bool {
	switch fl.Field().String() {
	case "男", "女":
		return true
	}
	return false
}

func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := ParseDate(fl.Field().String())
	return err == nil
}
