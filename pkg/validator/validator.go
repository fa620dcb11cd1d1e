package validator

import (
	"errors"
	"html"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	ContactNumberValidator = regexp.MustCompile(`^[\+]?[0-9\s\-\(\)]{7,}$`)
	ErrInvalidInput        = errors.New("invalid input")
	ErrMissingField        = errors.New("missing required field")
)

const (
	MinUsernameLength = 3
	MinPasswordLength = 6
	MaxAge            = 150
)

func ValidateUsername(username string) error {
	if username == "" {
		return ErrMissingField
	}
	if len(username) < MinUsernameLength {
		return ErrInvalidInput
	}
	return nil
}

func ValidatePassword(password string) error {
	if password == "" {
		return ErrMissingField
	}
	if len(password) < MinPasswordLength {
		return ErrInvalidInput
	}
	return nil
}

func ValidateName(name string) error {
	if strings.TrimSpace(name) == "" {
		return ErrMissingField
	}
	return nil
}

func ValidateDateOfBirth(dob string) error {
	if dob == "" {
		return ErrMissingField
	}
	if _, err := time.Parse("2006-01-02", dob); err != nil {
		return ErrInvalidInput
	}
	return nil
}

// ValidateAge checks an optional age field expressed as a string.
func ValidateAge(age string) error {
	if age == "" {
		return nil
	}
	value, err := strconv.Atoi(age)
	if err != nil || value < 0 || value > MaxAge {
		return ErrInvalidInput
	}
	return nil
}

// ValidateContactNumber checks an optional phone number field.
func ValidateContactNumber(number string) error {
	if strings.TrimSpace(number) == "" {
		return nil
	}
	if !ContactNumberValidator.MatchString(number) {
		return ErrInvalidInput
	}
	return nil
}

func SanitizeString(s string) string {
	return html.EscapeString(strings.TrimSpace(s))
}
