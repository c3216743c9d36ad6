package scam

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
)

// Field error codes. Validation failures are always recoverable: the
// dialog policy relays them and re-collects the failing field.
const (
	CodeInvalidFormat      = "invalid_format"
	CodeMissingCountryCode = "missing_country_code"
	CodeUnknownCategory    = "unknown_category"
	CodeTooLong            = "too_long"
	CodeMissingIdentity    = "missing_identity"
)

// MaxOrdealWords bounds the reporter's summary.
const MaxOrdealWords = 50

// FieldError reports exactly which field failed and why.
type FieldError struct {
	Field  string
	Code   string
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

// E.164-like: explicit 1-3 digit country code, 6-14 subscriber digits.
var mobilePattern = regexp.MustCompile(`^\+(\d{1,3})-?(\d{6,14})$`)

// NormalizeMobile validates a mobile number and returns the canonical
// +<countrycode>-<digits> form. The country code must be explicit; it is
// never inferred here. Pure and deterministic.
func NormalizeMobile(field, raw string) (string, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), " ", "")

	if !strings.HasPrefix(cleaned, "+") {
		return "", &FieldError{
			Field:  field,
			Code:   CodeMissingCountryCode,
			Reason: fmt.Sprintf("mobile number %q has no country code; expected +XX-<number>", raw),
		}
	}

	m := mobilePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", &FieldError{
			Field:  field,
			Code:   CodeInvalidFormat,
			Reason: fmt.Sprintf("invalid mobile number %q; expected +XX-<6 to 14 digits>", raw),
		}
	}

	return "+" + m[1] + "-" + m[2], nil
}

// ValidateCategory checks membership in the fixed catalog.
func ValidateCategory(id int) (int, error) {
	if _, ok := Categories[id]; !ok {
		return 0, &FieldError{
			Field:  "scam_category_id",
			Code:   CodeUnknownCategory,
			Reason: fmt.Sprintf("unknown scam category %d", id),
		}
	}
	return id, nil
}

// ValidateOrdeal bounds the summary to MaxOrdealWords words.
func ValidateOrdeal(text string) (string, error) {
	trimmed := strings.TrimSpace(text)
	if len(strings.Fields(trimmed)) > MaxOrdealWords {
		return "", &FieldError{
			Field:  "reporter_ordeal",
			Code:   CodeTooLong,
			Reason: fmt.Sprintf("ordeal summary exceeds %d words", MaxOrdealWords),
		}
	}
	return trimmed, nil
}

// IsEmail reports whether the identity string parses as an address.
func IsEmail(s string) bool {
	_, err := mail.ParseAddress(strings.TrimSpace(s))
	return err == nil
}
