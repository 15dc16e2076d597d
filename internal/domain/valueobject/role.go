package valueobject

import (
	"strings"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

type Role string

const (
	RoleUser      Role = "USER"
	RoleModerator Role = "MODERATOR"
	RoleAdmin     Role = "ADMIN"
)

func ParseRole(raw string) (Role, error) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(raw))); r {
	case RoleUser, RoleModerator, RoleAdmin:
		return r, nil
	}
	return "", domainerr.Validation("invalid role")
}

func (r Role) String() string { return string(r) }

func (r Role) IsAdmin() bool { return r == RoleAdmin }

func (r Role) IsModerator() bool { return r == RoleModerator }

// HasElevatedPrivileges is true for ADMIN and MODERATOR.
func (r Role) HasElevatedPrivileges() bool { return r.IsAdmin() || r.IsModerator() }
