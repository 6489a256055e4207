// Package utils holds the form checks the pages run before calling the
// backend. They only improve the UI; the backend validates everything again.
package utils

import (
	"strings"
	"unicode"
)

const (
	MobileLength      = 10
	OTPLength         = 6
	MinPasswordLength = 6
)

// NormalizeString trims whitespace and normalizes string input
func NormalizeString(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail normalizes email addresses (lowercase and trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeMobile keeps digits only and drops a leading +91 or 0.
func NormalizeMobile(mobile string) string {
	var b strings.Builder
	for _, r := range strings.TrimSpace(mobile) {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	switch {
	case len(digits) == MobileLength+2 && strings.HasPrefix(digits, "91"):
		return digits[2:]
	case len(digits) == MobileLength+1 && strings.HasPrefix(digits, "0"):
		return digits[1:]
	}
	return digits
}

// IsValidEmail performs basic email validation
func IsValidEmail(email string) bool {
	normalized := NormalizeEmail(email)
	if normalized == "" || strings.ContainsAny(normalized, " \t") {
		return false
	}
	parts := strings.Split(normalized, "@")
	if len(parts) != 2 {
		return false
	}
	local, domain := parts[0], parts[1]
	return len(local) > 0 && len(domain) > 2 && strings.Contains(domain, ".") &&
		!strings.HasPrefix(domain, ".") && !strings.HasSuffix(domain, ".")
}

func IsValidMobile(mobile string) bool {
	return allDigits(mobile, MobileLength)
}

// IsValidOTP accepts exactly six ASCII digits.
func IsValidOTP(otp string) bool {
	return allDigits(otp, OTPLength)
}

func IsValidPassword(password string) bool {
	return len([]rune(password)) >= MinPasswordLength
}

func allDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// FieldErrors collects per-field messages for re-rendering a form.
type FieldErrors map[string]string

func (f FieldErrors) Require(field, value, msg string) {
	if strings.TrimSpace(value) == "" {
		f[field] = msg
	}
}

// Check records msg for field when ok is false and the field has no
// earlier error.
func (f FieldErrors) Check(field string, ok bool, msg string) {
	if _, exists := f[field]; !exists && !ok {
		f[field] = msg
	}
}

func (f FieldErrors) Valid() bool {
	return len(f) == 0
}
