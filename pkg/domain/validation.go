package domain

import (
	"errors"
	"reflect"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/go-playground/validator/v10/non-standard/validators"
)

const (
	minPhoneDigits = 10
	maxPhoneDigits = 15
)

var (
	namePattern  = regexp.MustCompile(`^[a-zA-Z\s'-]+$`)                                         //nolint: gochecknoglobals
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)                              //nolint: gochecknoglobals
	phonePattern = regexp.MustCompile(`^(\+?\d{1,4})?[-.\s]?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`) //nolint: gochecknoglobals

	validate = newValidator() //nolint: gochecknoglobals

	// structFields maps a form field to its RegistrationRequest field for StructPartial.
	structFields = map[Field]string{ //nolint: gochecknoglobals
		FieldFirstName: "FirstName",
		FieldLastName:  "LastName",
		FieldEmail:     "Email",
		FieldPhone:     "Phone",
		FieldPassword:  "Password",
	}

	labels = map[Field]string{ //nolint: gochecknoglobals
		FieldFirstName: "First name",
		FieldLastName:  "Last name",
		FieldEmail:     "Email",
		FieldPhone:     "Phone number",
		FieldPassword:  "Password",
	}
)

func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}

		return name
	})

	for tag, fn := range map[string]validator.Func{
		"notblank":       validators.NotBlank,
		"trimmedmin":     trimmedMin,
		"personname":     stringMatches(namePattern, true),
		"emailaddr":      stringMatches(emailPattern, false),
		"phonedigits":    phoneDigitCount,
		"phone":          stringMatches(phonePattern, false),
		"strongpassword": strongPassword,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(err)
		}
	}

	return v
}

func stringMatches(re *regexp.Regexp, trim bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		s := fl.Field().String()
		if trim {
			s = strings.TrimSpace(s)
		}

		return re.MatchString(s)
	}
}

// trimmedMin compares the rune count of the trimmed value against the tag parameter.
func trimmedMin(fl validator.FieldLevel) bool {
	n, err := strconv.Atoi(fl.Param())
	if err != nil {
		return false
	}

	return len([]rune(strings.TrimSpace(fl.Field().String()))) >= n
}

func phoneDigitCount(fl validator.FieldLevel) bool {
	n := len(PhoneDigits(fl.Field().String()))

	return n >= minPhoneDigits && n <= maxPhoneDigits
}

// strongPassword requires an ASCII upper-case letter, lower-case letter and digit.
func strongPassword(fl validator.FieldLevel) bool {
	var upper, lower, digit bool
	for _, r := range fl.Field().String() {
		switch {
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= '0' && r <= '9':
			digit = true
		}
	}

	return upper && lower && digit
}

// FieldErrors maps a failing field to a human-readable message. An empty map
// means every evaluated field passed its rule.
type FieldErrors map[Field]string

// Error implements error so field failures can travel inside semantic errors.
func (fe FieldErrors) Error() string {
	if len(fe) == 0 {
		return "no validation errors"
	}
	keys := make([]string, 0, len(fe))
	for f := range fe {
		keys = append(keys, string(f))
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fe[Field(k)])
	}

	return "invalid fields: " + strings.Join(parts, "; ")
}

// Validate evaluates the rule of every given field, or of all form fields when
// none are given. It has no side effects and always returns a non-nil map.
func (r *RegistrationRequest) Validate(fields ...Field) FieldErrors {
	if len(fields) == 0 {
		fields = FormFields
	}

	names := make([]string, 0, len(fields))
	for _, f := range fields {
		if name, ok := structFields[f]; ok {
			names = append(names, name)
		}
	}

	errs := FieldErrors{}
	if len(names) == 0 {
		return errs
	}

	var verrs validator.ValidationErrors
	if err := validate.StructPartial(r, names...); errors.As(err, &verrs) {
		for _, fe := range verrs {
			f := Field(fe.Field())
			errs[f] = message(f, fe.Tag())
		}
	}

	return errs
}

// ValidateField applies the rule of a single field and returns the failure
// message, or "" when the value is acceptable.
func ValidateField(f Field, value string) string {
	var r RegistrationRequest
	if !r.Set(f, value) {
		return ""
	}

	return r.Validate(f)[f]
}

// message turns a failed validation tag into the text shown next to the field.
func message(f Field, tag string) string {
	label := labels[f]
	switch tag {
	case "notblank", "required":
		return label + " is required"
	case "trimmedmin":
		return label + " must be at least 2 characters"
	case "personname":
		return label + " contains invalid characters"
	case "emailaddr":
		return "Email is invalid"
	case "phonedigits":
		return "Phone number must be between 10-15 digits"
	case "phone":
		return "Please enter a valid phone number"
	case "min":
		return "Password must be at least 8 characters"
	case "strongpassword":
		return "Password must contain at least one uppercase letter, one lowercase letter and one number"
	default:
		return label + " is invalid"
	}
}

// PhoneDigits strips every non-digit character from a phone number.
func PhoneDigits(value string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}

		return -1
	}, value)
}
