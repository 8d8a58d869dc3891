package httpx

import (
	"net/mail"
	"strings"
	"unicode"
)

// fieldError is a single request-validation failure.
type fieldError struct {
	Msg string `json:"msg"`
}

const minPasswordLength = 6

// validateRegistration checks the register payload: name present, email
// well-formed, password at least six characters with at least two digits.
func validateRegistration(name, email, password string) []fieldError {
	var errs []fieldError
	if strings.TrimSpace(name) == "" {
		errs = append(errs, fieldError{Msg: "please enter a name"})
	}
	if !validEmail(email) {
		errs = append(errs, fieldError{Msg: "please provide a valid email"})
	}
	if len(password) < minPasswordLength {
		errs = append(errs, fieldError{Msg: "password must be at least 6 characters"})
	}
	if digitCount(password) < 2 {
		errs = append(errs, fieldError{Msg: "must contain at least two numbers"})
	}
	return errs
}

// validateLogin checks the login payload.
func validateLogin(email, password string) []fieldError {
	var errs []fieldError
	if !validEmail(email) {
		errs = append(errs, fieldError{Msg: "please enter a valid email"})
	}
	if password == "" {
		errs = append(errs, fieldError{Msg: "please enter your password"})
	}
	return errs
}

func validEmail(email string) bool {
	trimmed := strings.TrimSpace(email)
	if trimmed == "" {
		return false
	}
	addr, err := mail.ParseAddress(trimmed)
	return err == nil && addr.Address == trimmed
}

func digitCount(s string) int {
	count := 0
	for _, r := range s {
		if unicode.IsDigit(r) {
			count++
		}
	}
	return count
}
