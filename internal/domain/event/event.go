// Package event holds the immutable records produced by the user aggregate.
// They are returned from aggregate methods, collected by the caller and
// handed to a publisher after the aggregate has been saved.
package event

import (
	"time"

	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

const (
	NameUserRegistered      = "UserRegistered"
	NameUserEmailVerified   = "UserEmailVerified"
	NameUserLoggedIn        = "UserLoggedIn"
	NameUserStatusChanged   = "UserStatusChanged"
	NameUserPasswordChanged = "UserPasswordChanged"
	NameUserRoleChanged     = "UserRoleChanged"
)

type Event interface {
	Name() string
	AggregateID() vo.UserID
	OccurredAt() time.Time
}

// Header carries the fields common to every user event.
type Header struct {
	UserID vo.UserID
	At     time.Time
}

func (h Header) AggregateID() vo.UserID { return h.UserID }
func (h Header) OccurredAt() time.Time  { return h.At }

type UserRegistered struct {
	Header
	Email  vo.Email
	Method vo.AuthProvider
}

func (UserRegistered) Name() string { return NameUserRegistered }

type UserEmailVerified struct {
	Header
	Email vo.Email
}

func (UserEmailVerified) Name() string { return NameUserEmailVerified }

type UserLoggedIn struct {
	Header
	Method    vo.AuthProvider
	IPAddress string
	UserAgent string
}

func (UserLoggedIn) Name() string { return NameUserLoggedIn }

type UserStatusChanged struct {
	Header
	OldStatus vo.Status
	NewStatus vo.Status
	Reason    string
}

func (UserStatusChanged) Name() string { return NameUserStatusChanged }

type UserPasswordChanged struct {
	Header
	Method vo.AuthProvider
}

func (UserPasswordChanged) Name() string { return NameUserPasswordChanged }

type UserRoleChanged struct {
	Header
	OldRole vo.Role
	NewRole vo.Role
}

func (UserRoleChanged) Name() string { return NameUserRoleChanged }
