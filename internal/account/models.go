// Package account provides the identity directory for Guardline accounts.
package account

import (
	"errors"
	"strings"
	"time"
	"unicode"
)

// Repository errors.
var (
	ErrAccountNotFound = errors.New("account not found")
	ErrPhoneTaken      = errors.New("phone number already claimed by another account")
	ErrPhoneImmutable  = errors.New("account already has a different phone number")
	ErrInvalidPhone    = errors.New("invalid phone number")
)

// Account represents a registered account.
// Phone is set at most once, via the atomic claim operation.
type Account struct {
	ID        string
	Email     string
	Phone     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NormalizePhone normalizes a raw phone number into E.164 form.
// Accepts digits with optional separators (spaces, dashes, dots, parentheses)
// and a leading "+" or "00" international prefix.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		switch {
		case unicode.IsDigit(r):
			b.WriteRune(r)
		case r == '+' && b.Len() == 0:
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '.' || r == '(' || r == ')':
			// separator, skip
		default:
			return "", ErrInvalidPhone
		}
	}

	s := b.String()
	if strings.HasPrefix(s, "00") {
		s = "+" + s[2:]
	}
	if !strings.HasPrefix(s, "+") {
		return "", ErrInvalidPhone
	}

	digits := len(s) - 1
	if digits < 8 || digits > 15 {
		return "", ErrInvalidPhone
	}
	return s, nil
}
