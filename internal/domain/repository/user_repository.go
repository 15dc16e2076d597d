package repository

import (
	"context"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

var (
	ErrUserNotFound       = domainerr.NotFound("user not found")
	ErrCredentialNotFound = domainerr.NotFound("credential not found")
)

// UserRepository persists user aggregates. Lookups return ErrUserNotFound
// when nothing matches; every other error is an opaque storage failure.
type UserRepository interface {
	FindByID(ctx context.Context, id vo.UserID) (*entity.User, error)
	FindByEmail(ctx context.Context, email vo.Email) (*entity.User, error)
	// Save inserts or updates the aggregate.
	Save(ctx context.Context, u *entity.User) error
	Delete(ctx context.Context, id vo.UserID) error
	ExistsByEmail(ctx context.Context, email vo.Email) (bool, error)
	FindActiveUsers(ctx context.Context) ([]*entity.User, error)
	FindByEmailDomain(ctx context.Context, domain string) ([]*entity.User, error)
	Count(ctx context.Context) (int, error)
	UpdateLastLogin(ctx context.Context, id vo.UserID, at time.Time) error
}

// Credential links a user to a way of signing in. For LOCAL the secret is
// the password hash; for external providers it is the provider subject id.
type Credential struct {
	UserID   vo.UserID
	Provider vo.AuthProvider
	Secret   string
}

type CredentialRepository interface {
	SaveCredential(ctx context.Context, c Credential) error
	FindCredential(ctx context.Context, userID vo.UserID, provider vo.AuthProvider) (Credential, error)
}
