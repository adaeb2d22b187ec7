package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// ValidationError represents a shape-level validation failure, raised before
// any remote call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateEmail checks if an email address is valid
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return ValidationError{Field: "email", Message: "email is required"}
	}
	if !emailRegex.MatchString(email) {
		return ValidationError{Field: "email", Message: "invalid email format"}
	}
	return nil
}

// ValidatePassword checks if a password meets requirements: at least 6
// characters with an uppercase letter, a lowercase letter, and a digit.
func ValidatePassword(password string) error {
	if password == "" {
		return ValidationError{Field: "password", Message: "password is required"}
	}
	if len(password) < 6 {
		return ValidationError{Field: "password", Message: "password must be at least 6 characters"}
	}
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit {
		return ValidationError{Field: "password", Message: "password must contain an uppercase letter, a lowercase letter, and a digit"}
	}
	return nil
}

// ValidateName checks if a display name is valid
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ValidationError{Field: "name", Message: "name is required"}
	}
	if len(name) < 2 {
		return ValidationError{Field: "name", Message: "name must be at least 2 characters"}
	}
	return nil
}

// ValidateCode checks that a verification code is exactly six digits.
func ValidateCode(code string) error {
	if len(code) != 6 {
		return ValidationError{Field: "code", Message: "code must be 6 digits"}
	}
	for _, r := range code {
		if r < '0' || r > '9' {
			return ValidationError{Field: "code", Message: "code must be numeric"}
		}
	}
	return nil
}
