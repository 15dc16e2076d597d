package entity

import (
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// User is the aggregate root for identity. State changes only through its
// methods; each successful mutation returns the events it produced.
type User struct {
	id            vo.UserID
	email         vo.Email
	firstName     string
	lastName      string
	displayName   string
	avatar        string
	role          vo.Role
	status        vo.Status
	emailVerified bool
	createdAt     time.Time
	updatedAt     time.Time
	lastLoginAt   *time.Time
}

// RegisterParams are the inputs of a new registration. Role defaults to USER
// and Method to LOCAL when left empty.
type RegisterParams struct {
	Email     vo.Email
	FirstName string
	LastName  string
	Role      vo.Role
	Method    vo.AuthProvider
}

// Register creates a pending, unverified user and its UserRegistered event.
func Register(p RegisterParams, now time.Time) (*User, []event.Event) {
	role := p.Role
	if role == "" {
		role = vo.RoleUser
	}
	method := p.Method
	if method == "" {
		method = vo.ProviderLocal
	}
	u := &User{
		id:          vo.NewUserID(),
		email:       p.Email,
		firstName:   p.FirstName,
		lastName:    p.LastName,
		displayName: displayNameOf(p.FirstName, p.LastName),
		role:        role,
		status:      vo.StatusPending,
		createdAt:   now,
		updatedAt:   now,
	}
	return u, []event.Event{event.UserRegistered{Header: u.header(now), Email: u.email, Method: method}}
}

// Snapshot is the full persisted state of a user.
type Snapshot struct {
	ID            vo.UserID
	Email         vo.Email
	FirstName     string
	LastName      string
	DisplayName   string
	Avatar        string
	Role          vo.Role
	Status        vo.Status
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastLoginAt   *time.Time
}

// Rehydrate rebuilds a user from storage. It trusts the snapshot as-is: no
// validation, no derived fields recomputed, no events.
func Rehydrate(s Snapshot) *User {
	return &User{
		id:            s.ID,
		email:         s.Email,
		firstName:     s.FirstName,
		lastName:      s.LastName,
		displayName:   s.DisplayName,
		avatar:        s.Avatar,
		role:          s.Role,
		status:        s.Status,
		emailVerified: s.EmailVerified,
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		lastLoginAt:   copyTime(s.LastLoginAt),
	}
}

func (u *User) Snapshot() Snapshot {
	return Snapshot{
		ID:            u.id,
		Email:         u.email,
		FirstName:     u.firstName,
		LastName:      u.lastName,
		DisplayName:   u.displayName,
		Avatar:        u.avatar,
		Role:          u.role,
		Status:        u.status,
		EmailVerified: u.emailVerified,
		CreatedAt:     u.createdAt,
		UpdatedAt:     u.updatedAt,
		LastLoginAt:   copyTime(u.lastLoginAt),
	}
}

func (u *User) ID() vo.UserID           { return u.id }
func (u *User) Email() vo.Email         { return u.email }
func (u *User) FirstName() string       { return u.firstName }
func (u *User) LastName() string        { return u.lastName }
func (u *User) DisplayName() string     { return u.displayName }
func (u *User) Avatar() string          { return u.avatar }
func (u *User) Role() vo.Role           { return u.role }
func (u *User) Status() vo.Status       { return u.status }
func (u *User) EmailVerified() bool     { return u.emailVerified }
func (u *User) CreatedAt() time.Time    { return u.createdAt }
func (u *User) UpdatedAt() time.Time    { return u.updatedAt }
func (u *User) LastLoginAt() *time.Time { return copyTime(u.lastLoginAt) }

// UpdateProfile replaces the profile fields and recomputes the display name.
// Profile edits produce no event.
func (u *User) UpdateProfile(firstName, lastName, avatar string, now time.Time) {
	u.firstName = firstName
	u.lastName = lastName
	u.avatar = avatar
	u.displayName = displayNameOf(firstName, lastName)
	u.touch(now)
}

// VerifyEmail marks the address verified. A pending account is activated in
// the same step, so the result is UserStatusChanged followed by UserEmailVerified.
func (u *User) VerifyEmail(now time.Time) ([]event.Event, error) {
	if u.emailVerified {
		return nil, domainerr.Conflict("email is already verified")
	}
	u.emailVerified = true
	u.touch(now)

	var events []event.Event
	if u.status.IsPending() {
		activated, err := u.Activate(now)
		if err != nil {
			return nil, err
		}
		events = append(events, activated...)
	}
	return append(events, event.UserEmailVerified{Header: u.header(now), Email: u.email}), nil
}

func (u *User) Activate(now time.Time) ([]event.Event, error) {
	if u.status == vo.StatusActive {
		return nil, domainerr.Conflict("user is already active")
	}
	return u.transition(vo.StatusActive, "", now), nil
}

func (u *User) Suspend(reason string, now time.Time) ([]event.Event, error) {
	if u.status == vo.StatusSuspended {
		return nil, domainerr.Conflict("user is already suspended")
	}
	return u.transition(vo.StatusSuspended, reason, now), nil
}

func (u *User) Deactivate(now time.Time) ([]event.Event, error) {
	if u.status == vo.StatusInactive {
		return nil, domainerr.Conflict("user is already inactive")
	}
	return u.transition(vo.StatusInactive, "", now), nil
}

// RecordLogin stamps lastLoginAt. Only accounts whose status can
// authenticate may log in.
func (u *User) RecordLogin(method vo.AuthProvider, ipAddress, userAgent string, now time.Time) ([]event.Event, error) {
	if !u.status.CanAuthenticate() {
		return nil, domainerr.Validation("user cannot authenticate in current status")
	}
	at := now
	u.lastLoginAt = &at
	u.touch(now)
	return []event.Event{event.UserLoggedIn{
		Header:    u.header(now),
		Method:    method,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	}}, nil
}

func (u *User) RecordPasswordChange(method vo.AuthProvider, now time.Time) []event.Event {
	u.touch(now)
	return []event.Event{event.UserPasswordChanged{Header: u.header(now), Method: method}}
}

// ChangeRole always succeeds and is recorded for audit.
func (u *User) ChangeRole(newRole vo.Role, now time.Time) []event.Event {
	old := u.role
	u.role = newRole
	u.touch(now)
	return []event.Event{event.UserRoleChanged{Header: u.header(now), OldRole: old, NewRole: newRole}}
}

// CanPerformAction checks the user's role against the role an action requires.
func (u *User) CanPerformAction(required vo.Role) bool {
	switch required {
	case vo.RoleAdmin:
		return u.role.IsAdmin()
	case vo.RoleModerator:
		return u.role.HasElevatedPrivileges()
	default:
		return true
	}
}

// IsActive requires both an ACTIVE status and a verified email.
func (u *User) IsActive() bool {
	return u.status.IsActive() && u.emailVerified
}

func (u *User) transition(to vo.Status, reason string, now time.Time) []event.Event {
	old := u.status
	u.status = to
	u.touch(now)
	return []event.Event{event.UserStatusChanged{
		Header:    u.header(now),
		OldStatus: old,
		NewStatus: to,
		Reason:    reason,
	}}
}

// touch never moves updatedAt backwards, even with a coarse clock.
func (u *User) touch(now time.Time) {
	if now.Before(u.updatedAt) {
		return
	}
	u.updatedAt = now
}

func (u *User) header(now time.Time) event.Header {
	return event.Header{UserID: u.id, At: now}
}

func displayNameOf(first, last string) string {
	if first != "" && last != "" {
		return first + " " + last
	}
	return first
}

func copyTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
