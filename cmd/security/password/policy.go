package password

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Sign-up flows reject these outright regardless of length.
var trivialPasswords = map[string]struct{}{
	"password":    {},
	"password123": {},
	"123456":      {},
	"123456789":   {},
	"qwerty":      {},
	"qwerty123":   {},
	"11111111":    {},
	"letmein":     {},
	"iloveyou":    {},
}

// Validate checks the password against the configured policy. Lengths are
// measured in runes, not bytes.
func (c Config) Validate(password string) error {
	n := utf8.RuneCountInString(password)
	if n < c.Policy.MinLength {
		return ErrPasswordTooShort
	}
	if n > c.Policy.MaxLength {
		return ErrPasswordTooLong
	}

	if c.Policy.RejectVeryWeak && looksVeryWeak(password) {
		return ErrWeakPassword
	}
	return nil
}

// looksVeryWeak catches only the obviously hopeless cases. It is not a
// strength estimator.
func looksVeryWeak(pw string) bool {
	s := strings.TrimSpace(pw)
	if s == "" {
		return true
	}

	if _, found := trivialPasswords[strings.ToLower(s)]; found {
		return true
	}

	runes := []rune(s)
	allSame := true
	onlyDigits := unicode.IsDigit(runes[0])
	for _, r := range runes[1:] {
		if r != runes[0] {
			allSame = false
		}
		if !unicode.IsDigit(r) {
			onlyDigits = false
		}
	}
	if allSame {
		return true
	}

	// Short all-digit passwords are PIN-like.
	if onlyDigits && len(runes) < 12 {
		return true
	}

	return false
}
