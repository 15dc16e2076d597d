package service

import (
	"errors"
	"time"

	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// ErrInvalidToken is returned by TokenService verification for any token that
// is malformed, expired, signed with the wrong key or of the wrong type.
var ErrInvalidToken = errors.New("invalid token")

// PasswordService hashes and verifies passwords. It must never store or log plaintext.
type PasswordService interface {
	Hash(p vo.Password) (string, error)
	Verify(plain, hash string) (bool, error)
}

// TokenPayload is what a verified access token carries.
type TokenPayload struct {
	UserID    string
	Email     string
	Role      string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// TokenService mints and verifies access/refresh tokens signed with two
// distinct secrets.
type TokenService interface {
	GenerateAccessToken(userID, email, role string) (string, error)
	GenerateRefreshToken(userID string) (string, error)
	VerifyAccessToken(token string) (*TokenPayload, error)
	// VerifyRefreshToken returns the subject user id.
	VerifyRefreshToken(token string) (string, error)
	AccessTokenTTL() time.Duration
	RefreshTokenTTL() time.Duration
}
