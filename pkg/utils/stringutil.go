package utils

import (
	"net/mail"
	"regexp"
	"strings"
)

// Coalesce returns the first non-empty string among candidates.
func Coalesce(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// DefaultIfEmpty returns def if s is empty (after TrimSpace), otherwise s.
func DefaultIfEmpty(s, def string) string {
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// IsValidEmail validates email using net/mail.
func IsValidEmail(email string) bool {
	if email == "" {
		return false
	}
	_, err := mail.ParseAddress(email)
	return err == nil
}

var taiwanMobilePattern = regexp.MustCompile(`^09\d{8}$`)

// IsTaiwanMobile reports whether s is a Taiwanese mobile number (09 plus
// eight digits).
func IsTaiwanMobile(s string) bool {
	return taiwanMobilePattern.MatchString(s)
}
