package valueobject

import (
	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
)

// UserID is a random (version 4) UUID.
type UserID struct {
	id uuid.UUID
}

func NewUserID() UserID {
	return UserID{id: uuid.New()}
}

func ParseUserID(raw string) (UserID, error) {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil || id.Version() != 4 || id.Variant() != uuid.RFC4122 {
		return UserID{}, domainerr.Validation("invalid user ID format")
	}
	return UserID{id: id}, nil
}

// RestoreUserID wraps an id read back from storage.
func RestoreUserID(id uuid.UUID) UserID {
	return UserID{id: id}
}

func (u UserID) UUID() uuid.UUID { return u.id }

func (u UserID) String() string { return u.id.String() }

func (u UserID) Equals(other UserID) bool { return u.id == other.id }

func (u UserID) IsZero() bool { return u.id == uuid.Nil }
