package valueobject

import (
	"regexp"
	"strings"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

const maxEmailLength = 254

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// Email is a lowercase-normalized address of the form local@domain.
type Email struct {
	value string
}

func NewEmail(raw string) (Email, error) {
	if len(raw) > maxEmailLength {
		return Email{}, domainerr.Validation("email must not exceed 254 characters")
	}
	if !emailPattern.MatchString(raw) {
		return Email{}, domainerr.Validation("invalid email format")
	}
	return Email{value: strings.ToLower(raw)}, nil
}

// RestoreEmail wraps an address read back from storage without re-validating it.
func RestoreEmail(stored string) Email {
	return Email{value: stored}
}

func (e Email) String() string { return e.value }

// Domain returns the part after '@'.
func (e Email) Domain() string {
	if i := strings.LastIndexByte(e.value, '@'); i >= 0 {
		return e.value[i+1:]
	}
	return ""
}

func (e Email) Equals(other Email) bool { return e.value == other.value }

func (e Email) IsZero() bool { return e.value == "" }
