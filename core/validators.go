package core

import (
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/locales/en"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	en_translations "github.com/go-playground/validator/v10/translations/en"
)

const isoDate = "2006-01-02"

const requiredText = "this field is required"

type rule struct {
	tag  string
	text string
	fn   validator.Func // nil for built-in tags whose message is replaced
}

// globalRules are shared by every model.
var globalRules = []rule{
	{tag: "isodate", text: "date must be formatted as YYYY-MM-DD", fn: isoDateValidation},
	{tag: "classlevel", text: "invalid class level", fn: oneOf(ClassLevels)},
	{tag: "required", text: requiredText},
	{tag: "required_with", text: requiredText},
}

// NewTranslator returns the english translator used for validation messages.
func NewTranslator() ut.Translator {
	locale := en.New()
	translator, _ := ut.New(locale, locale).GetTranslator("en")
	return translator
}

// InitValidators prepares validate for the API models: english messages keyed by JSON field names.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = en_translations.RegisterDefaultTranslations(validate, translator)
	validate.RegisterTagNameFunc(jsonFieldName)

	for _, r := range globalRules {
		if r.fn == nil {
			RegisterCustomTranslation(validate, translator, r.tag, r.text, true)
			continue
		}
		_ = validate.RegisterValidation(r.tag, r.fn)
		RegisterCustomTranslation(validate, translator, r.tag, r.text)
	}
}

func jsonFieldName(fld reflect.StructField) string {
	name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
	if name == "-" {
		return ""
	}
	return name
}

// RegisterCustomTranslation sets the message of tag. Pass override to replace a default one.
func RegisterCustomTranslation(validate *validator.Validate, translator ut.Translator, tag, text string, override ...bool) {
	replace := len(override) > 0 && override[0]
	_ = validate.RegisterTranslation(
		tag, translator,
		func(t ut.Translator) error { return t.Add(tag, text, replace) },
		func(t ut.Translator, fe validator.FieldError) string {
			msg, _ := t.T(tag, fe.Field())
			return msg
		},
	)
}

// RegisterOneOf registers tag as a validator accepting only the given string values.
func RegisterOneOf(validate *validator.Validate, translator ut.Translator, tag, text string, values ...string) {
	_ = validate.RegisterValidation(tag, oneOf(values))
	RegisterCustomTranslation(validate, translator, tag, text)
}

func oneOf(values []string) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return ContainsString(values, fl.Field().String())
	}
}

// isoDateValidation accepts real calendar dates only: 2024-02-30 is refused.
func isoDateValidation(fl validator.FieldLevel) bool {
	_, err := time.Parse(isoDate, fl.Field().String())
	return err == nil
}
