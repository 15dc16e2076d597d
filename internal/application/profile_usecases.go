package application

import (
	"context"
	"errors"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
)

func (s *Service) loadUser(ctx context.Context, rawID string) (*entity.User, error) {
	id, err := vo.ParseUserID(rawID)
	if err != nil {
		return nil, err
	}
	return s.Users.FindByID(ctx, id)
}

func (s *Service) GetProfile(ctx context.Context, userID string) (UserView, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	return NewUserView(u), nil
}

// UpdateProfile changes the non-empty fields of in and keeps the rest.
func (s *Service) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (UserView, error) {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	if err := s.Auth.Authorize(u, service.ActionUpdateProfile); err != nil {
		return UserView{}, err
	}
	first, last, avatar := u.FirstName(), u.LastName(), u.Avatar()
	if v := strings.TrimSpace(in.FirstName); v != "" {
		first = v
	}
	if v := strings.TrimSpace(in.LastName); v != "" {
		last = v
	}
	if v := strings.TrimSpace(in.Avatar); v != "" {
		avatar = v
	}
	u.UpdateProfile(first, last, avatar, s.now())
	if err := s.save(ctx, u, nil); err != nil {
		return UserView{}, err
	}
	s.refreshSession(ctx, u)
	return NewUserView(u), nil
}

// UploadAvatar stores the image under avatars/<uid>/<random><ext> and points
// the profile at it.
func (s *Service) UploadAvatar(ctx context.Context, userID string, r io.Reader, filename, contentType string) (UserView, error) {
	if s.Avatars == nil {
		return UserView{}, errors.New("avatar storage not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return UserView{}, domainerr.Validation("avatar must be an image")
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	ext := strings.ToLower(filepath.Ext(filename))
	objectPath := path.Join("avatars", u.ID().String(), uuid.NewString()+ext)
	url, err := s.Avatars.Upload(ctx, objectPath, contentType, r)
	if err != nil {
		if s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", userID).Error("avatar upload failed")
		}
		return UserView{}, err
	}
	return s.UpdateProfile(ctx, userID, UpdateProfileInput{Avatar: url})
}

// ChangePassword replaces the LOCAL credential after checking the current password.
func (s *Service) ChangePassword(ctx context.Context, userID string, in ChangePasswordInput) error {
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	cred, err := s.Credentials.FindCredential(ctx, u.ID(), vo.ProviderLocal)
	if errors.Is(err, repository.ErrCredentialNotFound) {
		return domainerr.Validation("account has no password set")
	}
	if err != nil {
		return err
	}
	ok, err := s.Passwords.Verify(in.CurrentPassword, cred.Secret)
	if err != nil || !ok {
		return domainerr.Authentication("current password is incorrect")
	}
	next, err := vo.NewPassword(in.NewPassword)
	if err != nil {
		return err
	}
	if in.NewPassword == in.CurrentPassword {
		return domainerr.Validation("new password must differ from the current one")
	}
	hash, err := s.Passwords.Hash(next)
	if err != nil {
		return err
	}
	if err := s.Credentials.SaveCredential(ctx, repository.Credential{UserID: u.ID(), Provider: vo.ProviderLocal, Secret: hash}); err != nil {
		return err
	}
	return s.save(ctx, u, u.RecordPasswordChange(vo.ProviderLocal, s.now()))
}

// RequestEmailVerification mails a one-time link valid for 24 hours.
func (s *Service) RequestEmailVerification(ctx context.Context, userID string) error {
	if s.Verifications == nil || s.Emails == nil {
		return errors.New("email verification not configured")
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.EmailVerified() {
		return domainerr.Conflict("email is already verified")
	}
	token := uuid.NewString()
	if err := s.Verifications.Save(ctx, token, u.ID().String(), verificationTTL); err != nil {
		return err
	}
	link := s.VerifyEmailURL + "?token=" + token
	return s.Emails.EnqueueEmail(ctx, mailer.EmailJob{
		To:       u.Email().String(),
		Subject:  "Verify your email",
		Template: mailer.TemplateVerifyEmail,
		Data: map[string]any{
			"Name":      u.DisplayName(),
			"VerifyURL": link,
			"ExpiresIn": "24 hours",
		},
	})
}

// ConfirmEmailVerification consumes the token and verifies the owner's email,
// activating a pending account.
func (s *Service) ConfirmEmailVerification(ctx context.Context, token string) (UserView, error) {
	if s.Verifications == nil {
		return UserView{}, errors.New("email verification not configured")
	}
	userID, err := s.Verifications.Consume(ctx, strings.TrimSpace(token))
	if errors.Is(err, ErrVerificationTokenNotFound) {
		return UserView{}, domainerr.Validation("invalid or expired verification token")
	}
	if err != nil {
		return UserView{}, err
	}
	u, err := s.loadUser(ctx, userID)
	if err != nil {
		return UserView{}, err
	}
	events, err := u.VerifyEmail(s.now())
	if err != nil {
		return UserView{}, err
	}
	if err := s.save(ctx, u, events); err != nil {
		return UserView{}, err
	}
	return NewUserView(u), nil
}

// refreshSession copies profile fields into the live session, if any.
func (s *Service) refreshSession(ctx context.Context, u *entity.User) {
	if s.Sessions == nil {
		return
	}
	sess, err := s.Sessions.Get(ctx, u.ID().String())
	if err != nil {
		return
	}
	sess.DisplayName = u.DisplayName()
	sess.Avatar = u.Avatar()
	err = s.Sessions.Update(ctx, sess)
	if err != nil && !errors.Is(err, ErrSessionNotFound) && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", sess.UserID).Warn("refresh session failed")
	}
}
