// Package validate provides input validation for request fields.
package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

// String validation errors
var (
	ErrStringTooShort    = errors.New("string is too short")
	ErrStringTooLong     = errors.New("string is too long")
	ErrInvalidCharacters = errors.New("string contains invalid characters")
	ErrEmpty             = errors.New("string is empty")
)

// StringConstraints defines validation constraints for a string.
type StringConstraints struct {
	MinLength      int            // Minimum length in runes (0 = no minimum)
	MaxLength      int            // Maximum length in runes (0 = no maximum)
	MaxBytes       int            // Maximum length in bytes (0 = no maximum)
	AllowedPattern *regexp.Regexp // Optional regex pattern for allowed characters
	AllowEmpty     bool
	TrimSpace      bool
}

// String validates a string against the given constraints.
// Returns the validated (and optionally trimmed) string and an error if validation fails.
func String(s string, constraints StringConstraints) (string, error) {
	if constraints.TrimSpace {
		s = strings.TrimSpace(s)
	}

	if s == "" {
		if !constraints.AllowEmpty {
			return "", ErrEmpty
		}
		return s, nil
	}

	length := utf8.RuneCountInString(s)

	if constraints.MinLength > 0 && length < constraints.MinLength {
		return "", fmt.Errorf("%w: got %d chars, need at least %d", ErrStringTooShort, length, constraints.MinLength)
	}
	if constraints.MaxLength > 0 && length > constraints.MaxLength {
		return "", fmt.Errorf("%w: got %d chars, maximum is %d", ErrStringTooLong, length, constraints.MaxLength)
	}
	if constraints.MaxBytes > 0 && len(s) > constraints.MaxBytes {
		return "", fmt.Errorf("%w: got %d bytes, maximum is %d", ErrStringTooLong, len(s), constraints.MaxBytes)
	}

	if constraints.AllowedPattern != nil && !constraints.AllowedPattern.MatchString(s) {
		return "", fmt.Errorf("%w: does not match required pattern", ErrInvalidCharacters)
	}

	return s, nil
}

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.\-]+$`)

// Username validates an account name:
// - 3-50 characters
// - Letters, numbers, underscore, period and dash only
func Username(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength:      3,
		MaxLength:      50,
		AllowedPattern: usernamePattern,
		TrimSpace:      true,
	})
}

// Password validates a new password. It is not trimmed.
// bcrypt only reads the first 72 bytes, so longer passwords are rejected.
func Password(pw string) (string, error) {
	return String(pw, StringConstraints{
		MinLength: 6,
		MaxBytes:  72,
	})
}

// CropName validates a crop name used as a lookup key.
func CropName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength: 1,
		MaxLength: 50,
		TrimSpace: true,
	})
}

// ContactName validates the sender name of a contact message.
func ContactName(name string) (string, error) {
	return String(name, StringConstraints{
		MinLength:      1,
		MaxLength:      100,
		AllowedPattern: noLineBreaks,
		TrimSpace:      true,
	})
}

// ContactMessage validates the body of a contact message.
func ContactMessage(msg string) (string, error) {
	return String(msg, StringConstraints{
		MinLength: 1,
		MaxLength: 5000,
		TrimSpace: true,
	})
}

var noLineBreaks = regexp.MustCompile(`^[^\r\n]*$`)
