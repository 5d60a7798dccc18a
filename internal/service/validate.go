package service

import (
	"errors"
	"reflect"
	"regexp"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

var (
	validate = newValidator()

	usernameRe = regexp.MustCompile(`^[A-Za-z0-9_]{3,30}$`)
	clockRe    = regexp.MustCompile(`^([01][0-9]|2[0-3]):[0-5][0-9]$`)
)

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Имена полей в деталях ошибки — как в JSON: username, userImage.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		if name := fld.Tag.Get("field"); name != "" {
			return name
		}

		return lowerFirst(fld.Name)
	})

	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return strongPassword(fl.Field().String())
	})
	_ = v.RegisterValidation("clock", func(fl validator.FieldLevel) bool {
		return clockRe.MatchString(fl.Field().String())
	})

	return v
}

// maxPasswordBytes — предел bcrypt; длиннее GenerateFromPassword не хеширует.
const maxPasswordBytes = 72

// strongPassword — от 8 символов до 72 байт, есть строчная и заглавная буквы,
// цифра и спецсимвол.
func strongPassword(p string) bool {
	if len([]rune(p)) < 8 || len(p) > maxPasswordBytes {
		return false
	}

	var lower, upper, digit, special bool
	for _, r := range p {
		switch {
		case unicode.IsLower(r):
			lower = true
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}

	return lower && upper && digit && special
}

var tagMessages = map[string]string{
	"required": "is required",
	"email":    "must be a valid email address",
	"username": "must be 3-30 characters of letters, digits or underscore",
	"password": "must be 8 characters to 72 bytes long with upper and lower case letters, a digit and a special character",
	"url":      "must be a valid URL",
	"clock":    "must be a time in HH:MM format",
	"min":      "is too short",
	"max":      "is too long",
	"gte":      "must not be negative",
}

// validateStruct проверяет структуру и возвращает *ValidationError
// с сообщением на каждое поле.
func validateStruct(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &ValidationError{Fields: map[string]string{"body": err.Error()}}
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		name := fieldPath(fe.Namespace())
		if _, ok := fields[name]; ok {
			continue
		}

		msg, ok := tagMessages[fe.Tag()]
		switch {
		case fe.Tag() == "oneof":
			msg = "must be one of: " + fe.Param()
		case !ok:
			msg = "is invalid"
		}

		fields[name] = msg
	}

	return &ValidationError{Fields: fields}
}

// fieldPath убирает имя корневой структуры из пространства имён:
// "registerInput.email" -> "email", "createGroupInput.schedule[0].day" -> "schedule[0].day".
func fieldPath(ns string) string {
	if _, rest, ok := strings.Cut(ns, "."); ok {
		return rest
	}

	return ns
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}

	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}

// invalidField — ValidationError для одного поля.
func invalidField(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
