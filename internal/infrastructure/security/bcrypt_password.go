package security

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	"github.com/oksasatya/go-ddd-identity/internal/domain/service"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// BcryptPasswordService hashes passwords with bcrypt at a fixed cost.
type BcryptPasswordService struct {
	Cost int
}

func NewBcryptPasswordService(cost int) *BcryptPasswordService {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &BcryptPasswordService{Cost: cost}
}

// Hash only accepts plaintext passwords; hashing a hash is a programming error.
func (s *BcryptPasswordService) Hash(p vo.Password) (string, error) {
	if p.IsHashed() {
		return "", errors.New("password is already hashed")
	}
	b, err := bcrypt.GenerateFromPassword([]byte(p.Value()), s.Cost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Verify reports false for a mismatch and an error only for a malformed hash.
func (s *BcryptPasswordService) Verify(plain, hash string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword), errors.Is(err, bcrypt.ErrPasswordTooLong):
		return false, nil
	default:
		return false, err
	}
}

var _ service.PasswordService = (*BcryptPasswordService)(nil)
