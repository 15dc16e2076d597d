package application

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/event"
	"github.com/oksasatya/go-ddd-identity/pkg/mailer"
)

var (
	ErrSessionNotFound           = errors.New("session not found")
	ErrVerificationTokenNotFound = errors.New("verification token not found")
)

// ProviderProfile is the identity an external provider vouches for.
type ProviderProfile struct {
	Subject       string
	Email         string
	GivenName     string
	FamilyName    string
	Picture       string
	EmailVerified bool
}

type ProviderTokens struct {
	AccessToken  string
	RefreshToken string
}

// IdentityProvider talks to an external sign-in provider such as Google.
// VerifyIdentityToken returns a nil profile for a token the provider rejects.
type IdentityProvider interface {
	VerifyIdentityToken(ctx context.Context, token string) (*ProviderProfile, error)
	ExchangeAuthorizationCode(ctx context.Context, code string) (ProviderTokens, error)
	FetchProfile(ctx context.Context, accessToken string) (*ProviderProfile, error)
	AuthCodeURL(state string) string
}

// EventPublisher delivers domain events after the aggregate has been saved.
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

// EmailQueue hands an email job to the background worker.
type EmailQueue interface {
	EnqueueEmail(ctx context.Context, job mailer.EmailJob) error
}

// Session is the server side record that keeps a refresh token usable.
type Session struct {
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	DisplayName   string    `json:"display_name"`
	Avatar        string    `json:"avatar"`
	RefreshDigest string    `json:"refresh_digest"`
	CreatedAt     time.Time `json:"created_at"`
}

type SessionStore interface {
	// Put stores s for ttl, creating or replacing the session.
	Put(ctx context.Context, s Session, ttl time.Duration) error
	// Update replaces a live session and keeps its expiry. It never creates
	// one: ErrSessionNotFound when nothing is stored.
	Update(ctx context.Context, s Session) error
	// Get returns ErrSessionNotFound when nothing is stored for the user.
	Get(ctx context.Context, userID string) (Session, error)
	Delete(ctx context.Context, userID string) error
}

type VerificationStore interface {
	Save(ctx context.Context, token, userID string, ttl time.Duration) error
	// Consume returns the user id and removes the token. ErrVerificationTokenNotFound
	// covers unknown and expired tokens alike.
	Consume(ctx context.Context, token string) (string, error)
}

type AvatarStorage interface {
	Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error)
}

type SearchHit struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
}

type UserSearcher interface {
	Search(ctx context.Context, query string, size int) ([]SearchHit, error)
}

// AuthObserver receives the outcome of every sign-in attempt.
type AuthObserver interface {
	ObserveAuth(method, outcome string)
}
