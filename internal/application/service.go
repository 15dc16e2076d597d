package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
)

const verificationTTL = 24 * time.Hour

// Deps lists the collaborators of Service. Users, Credentials, Passwords and
// Tokens are required; the rest may be nil and the features that need them
// degrade or report that they are not configured.
type Deps struct {
	Users       repository.UserRepository
	Credentials repository.CredentialRepository
	Passwords   service.PasswordService
	Tokens      service.TokenService

	Provider      IdentityProvider
	Events        EventPublisher
	Emails        EmailQueue
	Sessions      SessionStore
	Verifications VerificationStore
	Avatars       AvatarStorage
	Search        UserSearcher
	Observer      AuthObserver

	Logger *logrus.Logger
	Clock  func() time.Time

	// VerifyEmailURL is the front-end page that receives ?token=...
	VerifyEmailURL string
}

type Service struct {
	Deps
	Auth *service.AuthenticationService
}

func NewService(d Deps) *Service {
	if d.Clock == nil {
		d.Clock = time.Now
	}
	return &Service{
		Deps: d,
		Auth: service.NewAuthenticationService(d.Users),
	}
}

func (s *Service) now() time.Time {
	return s.Clock().UTC()
}

// save persists the aggregate and then publishes the events it produced.
func (s *Service) save(ctx context.Context, u *entity.User, events []event.Event) error {
	if err := s.Users.Save(ctx, u); err != nil {
		return err
	}
	s.publish(ctx, events)
	return nil
}

func (s *Service) publish(ctx context.Context, events []event.Event) {
	if s.Events == nil || len(events) == 0 {
		return
	}
	if err := s.Events.Publish(ctx, events...); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("count", len(events)).Warn("publish domain events failed")
	}
}

func (s *Service) observe(method, outcome string) {
	if s.Observer != nil {
		s.Observer.ObserveAuth(method, outcome)
	}
}

// issueTokens mints a token pair and records the session that keeps the
// refresh token usable.
func (s *Service) issueTokens(ctx context.Context, u *entity.User) (*AuthResult, error) {
	access, err := s.Tokens.GenerateAccessToken(u.ID().String(), u.Email().String(), u.Role().String())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID().String()).Error("generate access token failed")
		}
		return nil, err
	}
	refresh, err := s.Tokens.GenerateRefreshToken(u.ID().String())
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID().String()).Error("generate refresh token failed")
		}
		return nil, err
	}

	if s.Sessions != nil {
		sess := Session{
			UserID:        u.ID().String(),
			Email:         u.Email().String(),
			DisplayName:   u.DisplayName(),
			Avatar:        u.Avatar(),
			RefreshDigest: digest(refresh),
			CreatedAt:     s.now(),
		}
		if err := s.Sessions.Put(ctx, sess, s.Tokens.RefreshTokenTTL()); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", sess.UserID).Warn("store session failed")
		}
	}

	return &AuthResult{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(s.Tokens.AccessTokenTTL() / time.Second),
		User:         NewUserView(u),
	}, nil
}

func digest(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
