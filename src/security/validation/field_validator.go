// backend/src/security/validation/field_validator.go
package validation

import (
	"fmt"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/Ampersand-AI/taxwizz-buddy/backend/src/models"
)

var ErrValidationFailed = fmt.Errorf("validation failed")

const (
	DefaultMaxStringLength = 255
	MaxNameLength          = 200
	MaxEmailLength         = 254
	MaxPhoneLength         = 40
	MaxNotesLength         = 2000
	MaxDocumentNameLength  = 200
	MaxIncomeLength        = 32
)

// --- String Validators ---

// ValidateStringNotEmpty checks if a string is not empty after trimming.
func ValidateStringNotEmpty(s, fieldName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s cannot be empty", ErrValidationFailed, fieldName)
	}
	return nil
}

// ValidateStringMaxLength checks if a string's UTF-8 character count is within max bounds.
func ValidateStringMaxLength(s string, maxLength int, fieldName string) error {
	if utf8.RuneCountInString(s) > maxLength {
		return fmt.Errorf("%w: %s exceeds maximum length of %d characters", ErrValidationFailed, fieldName, maxLength)
	}
	return nil
}

// ValidateStringRegex checks if a string matches a given regex pattern.
func ValidateStringRegex(s string, pattern *regexp.Regexp, fieldName, formatDescription string) error {
	if !pattern.MatchString(s) {
		return fmt.Errorf("%w: %s ('%s') is not in the expected format (%s)", ErrValidationFailed, fieldName, s, formatDescription)
	}
	return nil
}

// ValidateRequiredText combines the not-empty and max-length checks.
func ValidateRequiredText(s string, maxLength int, fieldName string) error {
	if err := ValidateStringNotEmpty(s, fieldName); err != nil {
		return err
	}
	return ValidateStringMaxLength(s, maxLength, fieldName)
}

// --- Specific Format Validators ---

var phoneRegex = regexp.MustCompile(`^[0-9+() .-]*$`)

// ValidateEmail checks that the address parses as a bare RFC 5322 address.
func ValidateEmail(s string) error {
	trimmed := strings.TrimSpace(s)
	if err := ValidateRequiredText(trimmed, MaxEmailLength, "email"); err != nil {
		return err
	}
	addr, err := mail.ParseAddress(trimmed)
	if err != nil || addr.Address != trimmed {
		return fmt.Errorf("%w: email ('%s') is not a valid address", ErrValidationFailed, s)
	}
	return nil
}

// ValidatePhone allows digits and common separators. Empty is accepted.
func ValidatePhone(s string) error {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	if err := ValidateStringMaxLength(trimmed, MaxPhoneLength, "phone"); err != nil {
		return err
	}
	return ValidateStringRegex(trimmed, phoneRegex, "phone", "digits, spaces and + ( ) . -")
}

// ValidateEntityType accepts the two filing entity types.
func ValidateEntityType(t models.EntityType) error {
	switch t {
	case models.EntityIndividual, models.EntityBusiness:
		return nil
	}
	return fmt.Errorf("%w: tax type ('%s') must be Individual or Business", ErrValidationFailed, t)
}

// IncomeTypes are the primary income types offered by the individual filing wizard.
var IncomeTypes = map[string]bool{
	"employment":      true,
	"self-employment": true,
	"rental":          true,
	"investment":      true,
	"mixed":           true,
}

func ValidateIncomeType(s string) error {
	if !IncomeTypes[s] {
		return fmt.Errorf("%w: income type ('%s') is not supported", ErrValidationFailed, s)
	}
	return nil
}

// --- Numeric Validators ---

var incomeRegex = regexp.MustCompile(`^[0-9][0-9,]*(\.[0-9]+)?$`)

// ParseIncome parses an annual income string. Digits with grouping commas and
// an optional decimal part are accepted, with surrounding blanks trimmed.
func ParseIncome(s string) (float64, error) {
	trimmed := strings.TrimSpace(s)
	if err := ValidateRequiredText(trimmed, MaxIncomeLength, "annual income"); err != nil {
		return 0, err
	}
	if strings.HasPrefix(trimmed, "-") {
		return 0, fmt.Errorf("%w: annual income cannot be negative", ErrValidationFailed)
	}
	if !incomeRegex.MatchString(trimmed) {
		return 0, fmt.Errorf("%w: annual income ('%s') is not a valid number", ErrValidationFailed, s)
	}

	val, err := strconv.ParseFloat(strings.ReplaceAll(trimmed, ",", ""), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: annual income ('%s') is not a valid number: %v", ErrValidationFailed, s, err)
	}
	return val, nil
}
