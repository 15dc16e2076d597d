package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

type UserSuite struct {
	suite.Suite
	now  time.Time
	user *User
}

func TestUserSuite(t *testing.T) {
	suite.Run(t, new(UserSuite))
}

func (s *UserSuite) SetupTest() {
	s.now = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	email, err := vo.NewEmail("Jane@Example.com")
	s.Require().NoError(err)
	u, events := Register(RegisterParams{Email: email, FirstName: "Jane", LastName: "Doe"}, s.now)
	s.Require().Len(events, 1)
	s.user = u
}

func (s *UserSuite) tick() time.Time {
	s.now = s.now.Add(time.Second)
	return s.now
}

func (s *UserSuite) TestRegister() {
	s.Equal(vo.StatusPending, s.user.Status())
	s.False(s.user.EmailVerified())
	s.Equal(vo.RoleUser, s.user.Role())
	s.Equal("Jane Doe", s.user.DisplayName())
	s.Equal("jane@example.com", s.user.Email().String())
	s.Nil(s.user.LastLoginAt())
	s.False(s.user.ID().IsZero())

	email, _ := vo.NewEmail("solo@example.com")
	u, events := Register(RegisterParams{Email: email, FirstName: "Solo"}, s.now)
	s.Equal("Solo", u.DisplayName())
	reg, ok := events[0].(event.UserRegistered)
	s.Require().True(ok)
	s.Equal(vo.ProviderLocal, reg.Method)
	s.Equal(u.ID(), reg.AggregateID())
}

func (s *UserSuite) TestDisplayNameUnsetWithoutFirstName() {
	s.user.UpdateProfile("", "Doe", "", s.tick())
	s.Equal("", s.user.DisplayName())
	s.Equal(s.now, s.user.UpdatedAt())
}

func (s *UserSuite) TestVerifyEmailWhilePendingActivates() {
	events, err := s.user.VerifyEmail(s.tick())
	s.Require().NoError(err)
	s.Require().Len(events, 2)

	changed, ok := events[0].(event.UserStatusChanged)
	s.Require().True(ok)
	s.Equal(vo.StatusPending, changed.OldStatus)
	s.Equal(vo.StatusActive, changed.NewStatus)
	s.IsType(event.UserEmailVerified{}, events[1])

	s.True(s.user.EmailVerified())
	s.True(s.user.IsActive())

	_, err = s.user.VerifyEmail(s.tick())
	s.True(domainerr.IsKind(err, domainerr.KindConflict))
}

func (s *UserSuite) TestVerifyEmailWhileSuspendedKeepsStatus() {
	_, err := s.user.Suspend("spam", s.tick())
	s.Require().NoError(err)

	events, err := s.user.VerifyEmail(s.tick())
	s.Require().NoError(err)
	s.Require().Len(events, 1)
	s.Equal(vo.StatusSuspended, s.user.Status())
	s.False(s.user.IsActive())
}

func (s *UserSuite) TestRepeatedTransitionsConflict() {
	type step func(time.Time) ([]event.Event, error)
	steps := map[string]step{
		"activate":   s.user.Activate,
		"deactivate": s.user.Deactivate,
		"suspend":    func(now time.Time) ([]event.Event, error) { return s.user.Suspend("", now) },
	}
	for name, fn := range steps {
		s.Run(name, func() {
			before := s.user.UpdatedAt()
			events, err := fn(s.tick())
			s.Require().NoError(err)
			s.Len(events, 1)
			s.True(s.user.UpdatedAt().After(before))

			_, err = fn(s.tick())
			s.True(domainerr.IsKind(err, domainerr.KindConflict))
		})
	}
}

func (s *UserSuite) TestStatusCanReturnToActive() {
	_, err := s.user.Activate(s.tick())
	s.Require().NoError(err)
	_, err = s.user.Suspend("abuse", s.tick())
	s.Require().NoError(err)
	events, err := s.user.Activate(s.tick())
	s.Require().NoError(err)
	changed := events[0].(event.UserStatusChanged)
	s.Equal(vo.StatusSuspended, changed.OldStatus)

	events, err = s.user.Deactivate(s.tick())
	s.Require().NoError(err)
	s.Equal(vo.StatusActive, events[0].(event.UserStatusChanged).OldStatus)
}

func (s *UserSuite) TestSuspendCarriesReason() {
	events, err := s.user.Suspend("chargeback", s.tick())
	s.Require().NoError(err)
	s.Equal("chargeback", events[0].(event.UserStatusChanged).Reason)
}

func (s *UserSuite) TestRecordLogin() {
	_, err := s.user.RecordLogin(vo.ProviderLocal, "1.2.3.4", "ua", s.tick())
	s.True(domainerr.IsKind(err, domainerr.KindValidation))
	s.Nil(s.user.LastLoginAt())

	_, err = s.user.Activate(s.tick())
	s.Require().NoError(err)
	at := s.tick()
	events, err := s.user.RecordLogin(vo.ProviderGoogle, "1.2.3.4", "ua", at)
	s.Require().NoError(err)
	s.Require().NotNil(s.user.LastLoginAt())
	s.Equal(at, *s.user.LastLoginAt())

	login := events[0].(event.UserLoggedIn)
	s.Equal(vo.ProviderGoogle, login.Method)
	s.Equal("1.2.3.4", login.IPAddress)
	s.Equal("ua", login.UserAgent)
}

func (s *UserSuite) TestChangeRoleIsAudited() {
	events := s.user.ChangeRole(vo.RoleModerator, s.tick())
	s.Equal(vo.RoleModerator, s.user.Role())
	changed := events[0].(event.UserRoleChanged)
	s.Equal(vo.RoleUser, changed.OldRole)
	s.Equal(vo.RoleModerator, changed.NewRole)
}

func (s *UserSuite) TestCanPerformAction() {
	s.True(s.user.CanPerformAction(vo.RoleUser))
	s.False(s.user.CanPerformAction(vo.RoleModerator))
	s.False(s.user.CanPerformAction(vo.RoleAdmin))

	s.user.ChangeRole(vo.RoleModerator, s.tick())
	s.True(s.user.CanPerformAction(vo.RoleModerator))
	s.False(s.user.CanPerformAction(vo.RoleAdmin))

	s.user.ChangeRole(vo.RoleAdmin, s.tick())
	s.True(s.user.CanPerformAction(vo.RoleAdmin))
}

func (s *UserSuite) TestUpdatedAtNeverMovesBackwards() {
	latest := s.tick()
	s.user.UpdateProfile("A", "B", "", latest)
	s.user.UpdateProfile("C", "D", "", latest.Add(-time.Minute))
	s.Equal(latest, s.user.UpdatedAt())
	s.Equal("C D", s.user.DisplayName())
}

func TestRehydrateTrustsSnapshot(t *testing.T) {
	last := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	snap := Snapshot{
		ID:            vo.NewUserID(),
		Email:         vo.RestoreEmail("stored@example.com"),
		FirstName:     "Stored",
		DisplayName:   "Custom Display",
		Role:          vo.RoleAdmin,
		Status:        vo.StatusActive,
		EmailVerified: true,
		CreatedAt:     last,
		UpdatedAt:     last,
		LastLoginAt:   &last,
	}
	u := Rehydrate(snap)

	assert.Equal(t, "Custom Display", u.DisplayName())
	assert.True(t, u.IsActive())
	require.NotNil(t, u.LastLoginAt())

	round := u.Snapshot()
	assert.Equal(t, snap.ID, round.ID)
	assert.Equal(t, snap.Email, round.Email)
	assert.Equal(t, *snap.LastLoginAt, *round.LastLoginAt)
	assert.NotSame(t, snap.LastLoginAt, round.LastLoginAt)
}
