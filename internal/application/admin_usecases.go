package application

import (
	"context"
	"errors"
	"strings"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

const (
	defaultSearchSize = 10
	maxSearchSize     = 50
)

// authorizeOn loads the actor and the target and checks that the actor may
// perform action on the target. Only admins may act on other admins, and
// nobody may act on themselves.
func (s *Service) authorizeOn(ctx context.Context, actorID, targetID string, action service.Action) (*entity.User, error) {
	actor, err := s.authorize(ctx, actorID, action)
	if err != nil {
		return nil, err
	}
	target, err := s.loadUser(ctx, targetID)
	if err != nil {
		return nil, err
	}
	if actor.ID().Equals(target.ID()) {
		return nil, domainerr.Validation("cannot perform this action on your own account")
	}
	if target.Role().IsAdmin() && !actor.Role().IsAdmin() {
		return nil, domainerr.Authorization("only admins can manage admin accounts")
	}
	return target, nil
}

func (s *Service) authorize(ctx context.Context, actorID string, action service.Action) (*entity.User, error) {
	actor, err := s.loadUser(ctx, actorID)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.Authorize(actor, action); err != nil {
		return nil, err
	}
	return actor, nil
}

type transitionFunc func(u *entity.User) ([]event.Event, error)

func (s *Service) changeStatus(ctx context.Context, actorID, targetID string, action service.Action, fn transitionFunc) (UserView, error) {
	target, err := s.authorizeOn(ctx, actorID, targetID, action)
	if err != nil {
		return UserView{}, err
	}
	events, err := fn(target)
	if err != nil {
		return UserView{}, err
	}
	if err := s.save(ctx, target, events); err != nil {
		return UserView{}, err
	}
	if s.Logger != nil {
		s.Logger.WithField("actor_id", actorID).WithField("user_id", targetID).
			WithField("status", target.Status().String()).Info("user status changed")
	}
	return NewUserView(target), nil
}

func (s *Service) ActivateUser(ctx context.Context, actorID, targetID string) (UserView, error) {
	return s.changeStatus(ctx, actorID, targetID, service.ActionActivateUser, func(u *entity.User) ([]event.Event, error) {
		return u.Activate(s.now())
	})
}

// SuspendUser also ends the target's session.
func (s *Service) SuspendUser(ctx context.Context, actorID, targetID, reason string) (UserView, error) {
	view, err := s.changeStatus(ctx, actorID, targetID, service.ActionSuspendUser, func(u *entity.User) ([]event.Event, error) {
		return u.Suspend(strings.TrimSpace(reason), s.now())
	})
	if err != nil {
		return UserView{}, err
	}
	s.dropSession(ctx, targetID)
	return view, nil
}

func (s *Service) DeactivateUser(ctx context.Context, actorID, targetID string) (UserView, error) {
	view, err := s.changeStatus(ctx, actorID, targetID, service.ActionDeactivateUser, func(u *entity.User) ([]event.Event, error) {
		return u.Deactivate(s.now())
	})
	if err != nil {
		return UserView{}, err
	}
	s.dropSession(ctx, targetID)
	return view, nil
}

func (s *Service) ChangeRole(ctx context.Context, actorID, targetID, role string) (UserView, error) {
	newRole, err := vo.ParseRole(role)
	if err != nil {
		return UserView{}, err
	}
	target, err := s.authorizeOn(ctx, actorID, targetID, service.ActionChangeRole)
	if err != nil {
		return UserView{}, err
	}
	if err := s.save(ctx, target, target.ChangeRole(newRole, s.now())); err != nil {
		return UserView{}, err
	}
	return NewUserView(target), nil
}

func (s *Service) DeleteUser(ctx context.Context, actorID, targetID string) error {
	target, err := s.authorizeOn(ctx, actorID, targetID, service.ActionDeleteUser)
	if err != nil {
		return err
	}
	if err := s.Users.Delete(ctx, target.ID()); err != nil {
		return err
	}
	s.dropSession(ctx, targetID)
	if s.Logger != nil {
		s.Logger.WithField("actor_id", actorID).WithField("user_id", targetID).Info("user deleted")
	}
	return nil
}

func (s *Service) ListActiveUsers(ctx context.Context, actorID string) ([]UserView, error) {
	if _, err := s.authorize(ctx, actorID, service.ActionListUsers); err != nil {
		return nil, err
	}
	users, err := s.Users.FindActiveUsers(ctx)
	if err != nil {
		return nil, err
	}
	return NewUserViews(users), nil
}

// SearchUsers queries the search index. A non-positive size means 10; sizes
// above 50 are capped at 50.
func (s *Service) SearchUsers(ctx context.Context, actorID, query string, size int) ([]SearchHit, error) {
	if _, err := s.authorize(ctx, actorID, service.ActionSearchUsers); err != nil {
		return nil, err
	}
	if s.Search == nil {
		return nil, errors.New("search not configured")
	}
	if strings.TrimSpace(query) == "" {
		return nil, domainerr.Validation("query is required")
	}
	switch {
	case size <= 0:
		size = defaultSearchSize
	case size > maxSearchSize:
		size = maxSearchSize
	}
	return s.Search.Search(ctx, query, size)
}

func (s *Service) dropSession(ctx context.Context, userID string) {
	if s.Sessions == nil {
		return
	}
	if err := s.Sessions.Delete(ctx, userID); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("drop session failed")
	}
}
