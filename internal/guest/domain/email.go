package domain

import (
	"net/mail"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

var emailFolder = cases.Fold()

// NormalizeEmail trims, NFKC-normalizes and case-folds an address so the
// same mailbox typed twice maps to one stored value.
func NormalizeEmail(raw string) (string, error) {
	s := norm.NFKC.String(strings.TrimSpace(raw))
	if s == "" {
		return "", ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", ErrInvalidEmail
	}
	return emailFolder.String(s), nil
}
