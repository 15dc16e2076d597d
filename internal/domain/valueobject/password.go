package valueobject

import (
	"strings"
	"unicode"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

const (
	minPasswordLength = 8
	// bcrypt rejects input longer than 72 bytes.
	maxPasswordBytes = 72
	passwordSymbols   = `!@#$%^&*(),.?":{}|<>`
)

// Password holds either a plaintext candidate or a stored hash. The two are
// created through different constructors and never convert into each other.
type Password struct {
	value  string
	hashed bool
}

// NewPassword validates plaintext strength: at least 8 characters and at most
// 72 bytes, with an uppercase letter, a lowercase letter, a digit and a symbol.
func NewPassword(plain string) (Password, error) {
	if len([]rune(plain)) < minPasswordLength {
		return Password{}, domainerr.Validation("password must be at least 8 characters long")
	}
	if len(plain) > maxPasswordBytes {
		return Password{}, domainerr.Validation("password must not exceed 72 bytes")
	}
	var upper, lower, digit, symbol bool
	for _, r := range plain {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case strings.ContainsRune(passwordSymbols, r):
			symbol = true
		}
	}
	switch {
	case !upper:
		return Password{}, domainerr.Validation("password must contain at least one uppercase letter")
	case !lower:
		return Password{}, domainerr.Validation("password must contain at least one lowercase letter")
	case !digit:
		return Password{}, domainerr.Validation("password must contain at least one number")
	case !symbol:
		return Password{}, domainerr.Validation("password must contain at least one special character")
	}
	return Password{value: plain}, nil
}

func PasswordFromHash(hash string) Password {
	return Password{value: hash, hashed: true}
}

func (p Password) Value() string { return p.value }

func (p Password) IsHashed() bool { return p.hashed }

// String never exposes the underlying value.
func (p Password) String() string { return "********" }
