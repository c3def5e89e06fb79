// Package validation wires go-playground/validator with Turkish messages and
// the club specific tags.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/locales/tr"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	trTranslations "github.com/go-playground/validator/v10/translations/tr"
)

const (
	nationalIDTag  = "tckn"
	nationalIDText = "{0} 11 haneli ve yalnızca rakamlardan oluşmalıdır"
	clockTag       = "clock"
	clockText      = "{0} SS:DD biçiminde olmalıdır"
)

// NationalIDLength is the number of digits in a TC Kimlik No.
const NationalIDLength = 11

// Validator bundles the validator with its Turkish translator.
type Validator struct {
	*validator.Validate
	translator ut.Translator
}

// New builds a Validator with Turkish translations and custom tags registered.
func New() *Validator {
	validate := validator.New()
	locale := tr.New()
	translator, _ := ut.New(locale, locale).GetTranslator("tr")
	_ = trTranslations.RegisterDefaultTranslations(validate, translator)

	// Use JSON tag names for errors instead of Go struct names.
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	_ = validate.RegisterValidation(nationalIDTag, func(fl validator.FieldLevel) bool {
		return ValidNationalID(fl.Field().String())
	})
	registerTranslation(validate, translator, nationalIDTag, nationalIDText)

	_ = validate.RegisterValidation(clockTag, func(fl validator.FieldLevel) bool {
		return ValidClock(fl.Field().String())
	})
	registerTranslation(validate, translator, clockTag, clockText)

	return &Validator{Validate: validate, translator: translator}
}

func registerTranslation(validate *validator.Validate, translator ut.Translator, tag, text string) {
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, true) },
		func(t ut.Translator, fe validator.FieldError) string {
			s, _ := t.T(tag, fe.Field())
			return s
		},
	)
}

// Message renders validation failures as a single Turkish sentence list.
// Errors that are not validator errors are returned verbatim.
func (v *Validator) Message(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err.Error()
	}
	parts := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		parts = append(parts, fe.Translate(v.translator))
	}
	return strings.Join(parts, "; ")
}

// ValidNationalID reports whether id is exactly eleven ASCII digits.
func ValidNationalID(id string) bool {
	if len(id) != NationalIDLength {
		return false
	}
	for i := 0; i < len(id); i++ {
		if id[i] < '0' || id[i] > '9' {
			return false
		}
	}
	return true
}

// ValidClock reports whether s is a 24h HH:MM time of day.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	for _, i := range []int{0, 1, 3, 4} {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	hour := int(s[0]-'0')*10 + int(s[1]-'0')
	minute := int(s[3]-'0')*10 + int(s[4]-'0')
	return hour < 24 && minute < 60
}
