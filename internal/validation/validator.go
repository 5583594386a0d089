// Package validation wraps go-playground/validator with Waver's field rules.
package validation

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

const (
	UsernameMinLen     = 3
	UsernameMaxLen     = 16
	PasswordMinLen     = 8
	CommentMaxChars    = 1100
	CommentMaxNewlines = 12
	passwordSymbols    = "!@#$&*._-"
)

var (
	usernameCharsRegex = regexp.MustCompile(`^[A-Za-z0-9._]+$`)
	emailRegex         = regexp.MustCompile(`^[A-Z0-9a-z._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,64}$`)
)

// CustomValidator validates request DTOs.
type CustomValidator struct {
	validate *validator.Validate
}

func New() *CustomValidator {
	v := validator.New()

	// Report json names in errors so clients can map them to form fields.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return ValidUsername(fl.Field().String())
	})
	v.RegisterValidation("password_strength", func(fl validator.FieldLevel) bool {
		return ValidPassword(fl.Field().String())
	})
	v.RegisterValidation("email_address", func(fl validator.FieldLevel) bool {
		return ValidEmail(fl.Field().String())
	})
	v.RegisterValidation("report_comment", func(fl validator.FieldLevel) bool {
		return ValidComment(fl.Field().String())
	})

	return &CustomValidator{validate: v}
}

// Validate validates a struct and returns *Errors on rule failures.
func (cv *CustomValidator) Validate(i interface{}) error {
	err := cv.validate.Struct(i)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := &Errors{Fields: make(map[string]string, len(verrs))}
	for _, fe := range verrs {
		out.Fields[fe.Field()] = message(fe)
	}
	return out
}

// Errors maps json field names to human-readable messages.
type Errors struct {
	Fields map[string]string
}

func (e *Errors) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for f, m := range e.Fields {
		parts = append(parts, f+": "+m)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "username":
		return fmt.Sprintf("must be %d-%d letters, numbers, periods or underscores, without leading, trailing or repeated periods", UsernameMinLen, UsernameMaxLen)
	case "password_strength":
		return fmt.Sprintf("must be at least %d characters with a letter, a number and one of %s", PasswordMinLen, passwordSymbols)
	case "email_address":
		return "must be a valid email address"
	case "report_comment":
		return fmt.Sprintf("must be at most %d characters and %d line breaks", CommentMaxChars, CommentMaxNewlines)
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "uuid", "uuid4":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

// ValidUsername allows 3-16 of [A-Za-z0-9._] with no leading, trailing or doubled periods.
func ValidUsername(s string) bool {
	if len(s) < UsernameMinLen || len(s) > UsernameMaxLen {
		return false
	}
	if !usernameCharsRegex.MatchString(s) {
		return false
	}
	if strings.HasPrefix(s, ".") || strings.HasSuffix(s, ".") {
		return false
	}
	return !strings.Contains(s, "..")
}

// ValidPassword requires a letter, a digit and a symbol from !@#$&*._- in at least 8 characters.
func ValidPassword(s string) bool {
	if utf8.RuneCountInString(s) < PasswordMinLen {
		return false
	}
	var letter, digit, symbol bool
	for _, r := range s {
		switch {
		case (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z'):
			letter = true
		case r >= '0' && r <= '9':
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	return letter && digit && symbol
}

func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// ValidComment limits a report comment to 1100 characters and 12 line breaks.
func ValidComment(s string) bool {
	return utf8.RuneCountInString(s) <= CommentMaxChars && strings.Count(s, "\n") <= CommentMaxNewlines
}

// NormalizeUsername is the stored form of a username.
func NormalizeUsername(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeEmail is the stored form of an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
