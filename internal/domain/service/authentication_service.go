package service

import (
	"context"
	"errors"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// Action is a coarse-grained operation name checked against the permission table.
type Action string

const (
	ActionCreateUser      Action = "CREATE_USER"
	ActionDeleteUser      Action = "DELETE_USER"
	ActionChangeRole      Action = "CHANGE_ROLE"
	ActionModerateContent Action = "MODERATE_CONTENT"
	ActionSuspendUser     Action = "SUSPEND_USER"
	ActionActivateUser    Action = "ACTIVATE_USER"
	ActionDeactivateUser  Action = "DEACTIVATE_USER"
	ActionListUsers       Action = "LIST_USERS"
	ActionSearchUsers     Action = "SEARCH_USERS"
	ActionUpdateProfile   Action = "UPDATE_PROFILE"
)

// permissions is the single source of truth for which role an action needs.
// Actions missing from the table are open to every active user.
var permissions = map[Action]vo.Role{
	ActionCreateUser:      vo.RoleAdmin,
	ActionDeleteUser:      vo.RoleAdmin,
	ActionChangeRole:      vo.RoleAdmin,
	ActionModerateContent: vo.RoleModerator,
	ActionSuspendUser:     vo.RoleModerator,
	ActionActivateUser:    vo.RoleModerator,
	ActionDeactivateUser:  vo.RoleModerator,
	ActionListUsers:       vo.RoleModerator,
	ActionSearchUsers:     vo.RoleModerator,
	ActionUpdateProfile:   vo.RoleUser,
}

// RequiredRole returns the role an action needs and whether the action is listed.
func RequiredRole(action Action) (vo.Role, bool) {
	r, ok := permissions[action]
	return r, ok
}

// AuthenticationService holds the rules that span more than one aggregate instance.
type AuthenticationService struct {
	Users repository.UserRepository
}

func NewAuthenticationService(users repository.UserRepository) *AuthenticationService {
	return &AuthenticationService{Users: users}
}

// ValidateUniqueEmail fails with a conflict when another user holds email.
// A zero exclude means no user is excluded.
func (s *AuthenticationService) ValidateUniqueEmail(ctx context.Context, email vo.Email, exclude vo.UserID) error {
	existing, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if exclude.IsZero() || !existing.ID().Equals(exclude) {
		return domainerr.Conflict("email is already registered")
	}
	return nil
}

func (s *AuthenticationService) CanUserPerformAction(u *entity.User, action Action) bool {
	if !u.IsActive() {
		return false
	}
	required, ok := permissions[action]
	if !ok {
		return true
	}
	return u.CanPerformAction(required)
}

// Authorize is CanUserPerformAction expressed as an error.
func (s *AuthenticationService) Authorize(u *entity.User, action Action) error {
	if !s.CanUserPerformAction(u, action) {
		return domainerr.Authorization("insufficient privileges for " + string(action))
	}
	return nil
}

func (s *AuthenticationService) ValidateUserForAuthentication(u *entity.User) error {
	if !u.Status().CanAuthenticate() {
		return domainerr.Validation("user account is not in a valid state for authentication")
	}
	if !u.EmailVerified() {
		return domainerr.Validation("email must be verified before authentication")
	}
	return nil
}
