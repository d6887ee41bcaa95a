package service

import (
	"unicode/utf8"

	"github.com/aussiebroadwan/dirauth/internal/auth/domain"
)

// MaxUsernameLength is the longest accepted username, in characters.
const MaxUsernameLength = 255

// ValidateCredentials checks the shape of a login request without touching
// any backend. All violations are reported together. The password value is
// never copied into the result.
func ValidateCredentials(req domain.LoginRequest) error {
	var fields []FieldError

	switch n := utf8.RuneCountInString(req.Username); {
	case n == 0:
		fields = append(fields, FieldError{Field: "username", Rule: RuleRequired})
	default:
		if n > MaxUsernameLength {
			fields = append(fields, FieldError{Field: "username", Rule: RuleLength, Value: req.Username})
		}
		if !validUsernameChars(req.Username) {
			fields = append(fields, FieldError{Field: "username", Rule: RuleCharset, Value: req.Username})
		}
	}

	if req.Password == "" {
		fields = append(fields, FieldError{Field: "password", Rule: RuleRequired})
	}

	if len(fields) > 0 {
		return &ValidationError{Fields: fields}
	}
	return nil
}

// validUsernameChars allows ASCII letters, digits, '_', '.' and '-'.
func validUsernameChars(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
		case c == '_', c == '.', c == '-':
		default:
			return false
		}
	}
	return true
}
