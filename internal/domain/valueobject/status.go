package valueobject

import (
	"strings"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusActive    Status = "ACTIVE"
	StatusInactive  Status = "INACTIVE"
	StatusSuspended Status = "SUSPENDED"
)

func ParseStatus(raw string) (Status, error) {
	switch s := Status(strings.ToUpper(strings.TrimSpace(raw))); s {
	case StatusPending, StatusActive, StatusInactive, StatusSuspended:
		return s, nil
	}
	return "", domainerr.Validation("invalid status")
}

func (s Status) String() string { return string(s) }

func (s Status) IsActive() bool    { return s == StatusActive }
func (s Status) IsPending() bool   { return s == StatusPending }
func (s Status) IsSuspended() bool { return s == StatusSuspended }

// CanAuthenticate is true only for ACTIVE accounts.
func (s Status) CanAuthenticate() bool { return s.IsActive() }
