package application

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

const msgInvalidCredentials = "invalid email or password"

// Register creates a pending LOCAL account and signs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := vo.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	password, err := vo.NewPassword(in.Password)
	if err != nil {
		return nil, err
	}
	if err := s.Auth.ValidateUniqueEmail(ctx, email, vo.UserID{}); err != nil {
		return nil, err
	}

	u, events := entity.Register(entity.RegisterParams{
		Email:     email,
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Method:    vo.ProviderLocal,
	}, s.now())

	hash, err := s.Passwords.Hash(password)
	if err != nil {
		return nil, err
	}
	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	if err := s.Credentials.SaveCredential(ctx, repository.Credential{
		UserID:   u.ID(),
		Provider: vo.ProviderLocal,
		Secret:   hash,
	}); err != nil {
		s.discard(ctx, u.ID(), err)
		return nil, err
	}

	res, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID().String()).Info("user registered")
	}
	return res, nil
}

// Login authenticates with email and password. Unknown email and wrong
// password produce the same error.
func (s *Service) Login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	res, err := s.login(ctx, in)
	if err != nil {
		s.observe(vo.ProviderLocal.String(), "failure")
		return nil, err
	}
	s.observe(vo.ProviderLocal.String(), "success")
	return res, nil
}

func (s *Service) login(ctx context.Context, in LoginInput) (*AuthResult, error) {
	email, err := vo.NewEmail(in.Email)
	if err != nil {
		return nil, err
	}
	u, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerr.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	if !u.Status().CanAuthenticate() {
		return nil, domainerr.Authentication("account is not active")
	}
	if !u.EmailVerified() {
		return nil, domainerr.Authentication("please verify your email before logging in")
	}

	cred, err := s.Credentials.FindCredential(ctx, u.ID(), vo.ProviderLocal)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return nil, domainerr.Authentication(msgInvalidCredentials)
	}
	if err != nil {
		return nil, err
	}
	ok, err := s.Passwords.Verify(in.Password, cred.Secret)
	if err != nil || !ok {
		return nil, domainerr.Authentication(msgInvalidCredentials)
	}

	events, err := u.RecordLogin(vo.ProviderLocal, in.IPAddress, in.UserAgent, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, u, events); err != nil {
		return nil, err
	}
	return s.issueTokens(ctx, u)
}

// ExternalProviderLogin signs in with a Google authorization code or ID token,
// creating the account on first use.
func (s *Service) ExternalProviderLogin(ctx context.Context, in ExternalLoginInput) (*AuthResult, error) {
	res, err := s.externalLogin(ctx, in)
	if err != nil {
		s.observe(vo.ProviderGoogle.String(), "failure")
		return nil, err
	}
	s.observe(vo.ProviderGoogle.String(), "success")
	return res, nil
}

func (s *Service) externalLogin(ctx context.Context, in ExternalLoginInput) (*AuthResult, error) {
	if s.Provider == nil {
		return nil, errors.New("identity provider not configured")
	}
	profile, err := s.resolveProfile(ctx, strings.TrimSpace(in.Token))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, domainerr.Authentication("unable to verify identity with provider")
	}
	if !profile.EmailVerified {
		return nil, domainerr.Authentication("provider email is not verified")
	}
	email, err := vo.NewEmail(profile.Email)
	if err != nil {
		return nil, err
	}

	u, err := s.Users.FindByEmail(ctx, email)
	switch {
	case errors.Is(err, repository.ErrUserNotFound):
		return s.registerFromProvider(ctx, email, profile, in)
	case err != nil:
		return nil, err
	}

	events, err := u.RecordLogin(vo.ProviderGoogle, in.IPAddress, in.UserAgent, s.now())
	if err != nil {
		return nil, err
	}
	if err := s.save(ctx, u, events); err != nil {
		return nil, err
	}
	s.linkProvider(ctx, u, profile)
	return s.issueTokens(ctx, u)
}

func (s *Service) registerFromProvider(ctx context.Context, email vo.Email, p *ProviderProfile, in ExternalLoginInput) (*AuthResult, error) {
	now := s.now()
	u, events := entity.Register(entity.RegisterParams{
		Email:     email,
		FirstName: p.GivenName,
		LastName:  p.FamilyName,
		Method:    vo.ProviderGoogle,
	}, now)
	u.UpdateProfile(p.GivenName, p.FamilyName, p.Picture, now)

	verified, err := u.VerifyEmail(now)
	if err != nil {
		return nil, err
	}
	events = append(events, verified...)
	login, err := u.RecordLogin(vo.ProviderGoogle, in.IPAddress, in.UserAgent, now)
	if err != nil {
		return nil, err
	}
	events = append(events, login...)

	if err := s.Users.Save(ctx, u); err != nil {
		return nil, err
	}
	s.linkProvider(ctx, u, p)
	res, err := s.issueTokens(ctx, u)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, events)
	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID().String()).Info("user registered via google")
	}
	return res, nil
}

// discard removes a user whose credential could not be stored, so the email
// stays free to register again.
func (s *Service) discard(ctx context.Context, id vo.UserID, cause error) {
	err := s.Users.Delete(context.WithoutCancel(ctx), id)
	if err == nil || s.Logger == nil {
		return
	}
	s.Logger.WithError(err).WithField("user_id", id.String()).
		WithField("cause", cause.Error()).Error("failed to remove user without credential")
}

// linkProvider records the provider subject for the user if it is not known yet.
func (s *Service) linkProvider(ctx context.Context, u *entity.User, p *ProviderProfile) {
	if p.Subject == "" {
		return
	}
	_, err := s.Credentials.FindCredential(ctx, u.ID(), vo.ProviderGoogle)
	if err == nil {
		return
	}
	if !errors.Is(err, repository.ErrCredentialNotFound) {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID().String()).Warn("lookup provider credential failed")
		}
		return
	}
	err = s.Credentials.SaveCredential(ctx, repository.Credential{UserID: u.ID(), Provider: vo.ProviderGoogle, Secret: p.Subject})
	if err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID().String()).Warn("link provider credential failed")
	}
}

func (s *Service) resolveProfile(ctx context.Context, token string) (*ProviderProfile, error) {
	if token == "" {
		return nil, domainerr.Validation("token is required")
	}
	code, isCode := authorizationCode(token)
	if !isCode {
		return s.Provider.VerifyIdentityToken(ctx, token)
	}
	tokens, err := s.Provider.ExchangeAuthorizationCode(ctx, code)
	if err != nil {
		return nil, err
	}
	if tokens.AccessToken == "" {
		return nil, domainerr.Authentication("provider returned no access token")
	}
	return s.Provider.FetchProfile(ctx, tokens.AccessToken)
}

// authorizationCode reports whether raw is a Google authorization code, either
// bare ("4/...") or embedded in a callback query ("...code=4/...").
func authorizationCode(raw string) (string, bool) {
	if strings.HasPrefix(raw, "4/") {
		return raw, true
	}
	if !strings.Contains(raw, "code=") {
		return "", false
	}
	query := raw
	if i := strings.Index(raw, "?"); i >= 0 {
		query = raw[i+1:]
	}
	values, err := url.ParseQuery(query)
	if err != nil || values.Get("code") == "" {
		return raw, true
	}
	return values.Get("code"), true
}

// RefreshTokens rotates a token pair. The refresh token must match the live session.
func (s *Service) RefreshTokens(ctx context.Context, refreshToken string) (*AuthResult, error) {
	subject, err := s.Tokens.VerifyRefreshToken(refreshToken)
	if err != nil {
		return nil, domainerr.Authentication("invalid refresh token")
	}
	id, err := vo.ParseUserID(subject)
	if err != nil {
		return nil, domainerr.Authentication("invalid refresh token")
	}
	u, err := s.Users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrUserNotFound) {
		return nil, domainerr.Authentication("invalid refresh token")
	}
	if err != nil {
		return nil, err
	}
	if !u.Status().CanAuthenticate() {
		return nil, domainerr.Authentication("account is not active")
	}
	if s.Sessions != nil {
		sess, err := s.Sessions.Get(ctx, u.ID().String())
		if errors.Is(err, ErrSessionNotFound) {
			return nil, domainerr.Authentication("session expired")
		}
		if err != nil {
			return nil, err
		}
		if sess.RefreshDigest != digest(refreshToken) {
			return nil, domainerr.Authentication("invalid refresh token")
		}
	}
	return s.issueTokens(ctx, u)
}

// Logout drops the session so outstanding tokens stop working.
func (s *Service) Logout(ctx context.Context, userID string) error {
	if s.Sessions == nil {
		return nil
	}
	return s.Sessions.Delete(ctx, userID)
}

// GoogleAuthURL returns the consent page URL and the state embedded in it.
func (s *Service) GoogleAuthURL(state string) (string, string, error) {
	if s.Provider == nil {
		return "", "", errors.New("identity provider not configured")
	}
	if state == "" {
		state = uuid.NewString()
	}
	return s.Provider.AuthCodeURL(state), state, nil
}
