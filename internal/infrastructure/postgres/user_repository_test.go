//go:build integration

package postgres

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/stretchr/testify/suite"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

// UserRepositorySuite needs a disposable database; it runs only when
// POSTGRES_TEST_DSN (a postgres:// URL) is set.
type UserRepositorySuite struct {
	suite.Suite
	ctx  context.Context
	repo *UserRepository
}

func TestUserRepositorySuite(t *testing.T) {
	if os.Getenv("POSTGRES_TEST_DSN") == "" {
		t.Skip("POSTGRES_TEST_DSN not set")
	}
	suite.Run(t, new(UserRepositorySuite))
}

func (s *UserRepositorySuite) SetupSuite() {
	dsn := os.Getenv("POSTGRES_TEST_DSN")
	m, err := migrate.New("file://../../../db/migrations", dsn)
	s.Require().NoError(err)
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		s.Require().NoError(err)
	}
	srcErr, dbErr := m.Close()
	s.Require().NoError(srcErr)
	s.Require().NoError(dbErr)

	s.ctx = context.Background()
	pool, err := NewPool(s.ctx, dsn, 4, 1, time.Minute)
	s.Require().NoError(err)
	s.T().Cleanup(pool.Close)
	s.repo = NewUserRepository(pool)
}

func (s *UserRepositorySuite) SetupTest() {
	_, err := s.repo.pool.Exec(s.ctx, `TRUNCATE users CASCADE`)
	s.Require().NoError(err)
}

func (s *UserRepositorySuite) newUser(address string, at time.Time) *entity.User {
	email, err := vo.NewEmail(address)
	s.Require().NoError(err)
	u, _ := entity.Register(entity.RegisterParams{Email: email, FirstName: "Pat"}, at)
	s.Require().NoError(s.repo.Save(s.ctx, u))
	return u
}

func (s *UserRepositorySuite) TestSaveAndFind() {
	u := s.newUser("pat@example.com", time.Now().UTC().Truncate(time.Millisecond))

	got, err := s.repo.FindByEmail(s.ctx, u.Email())
	s.Require().NoError(err)
	s.True(got.ID().Equals(u.ID()))
	s.Equal("Pat", got.FirstName())
	s.Equal(vo.StatusPending, got.Status())

	_, err = s.repo.FindByID(s.ctx, vo.NewUserID())
	s.ErrorIs(err, repository.ErrUserNotFound)
}

func (s *UserRepositorySuite) TestDuplicateEmailConflicts() {
	s.newUser("dup@example.com", time.Now())
	email, _ := vo.NewEmail("dup@example.com")
	other, _ := entity.Register(entity.RegisterParams{Email: email}, time.Now())
	err := s.repo.Save(s.ctx, other)
	s.True(domainerr.IsKind(err, domainerr.KindConflict))
}

func (s *UserRepositorySuite) TestFindByEmailDomainIsLiteral() {
	base := time.Now().UTC()
	s.newUser("a@example.com", base)
	s.newUser("b@example.com", base.Add(time.Second))
	s.newUser("c@other.com", base.Add(2*time.Second))

	hits, err := s.repo.FindByEmailDomain(s.ctx, "example.com")
	s.Require().NoError(err)
	s.Len(hits, 2)

	for _, pattern := range []string{"_xample.com", "%.com", "%"} {
		hits, err = s.repo.FindByEmailDomain(s.ctx, pattern)
		s.Require().NoError(err)
		s.Empty(hits, pattern)
	}
}

func (s *UserRepositorySuite) TestCredentialsAreDeletedWithUser() {
	u := s.newUser("cred@example.com", time.Now())
	s.Require().NoError(s.repo.SaveCredential(s.ctx, repository.Credential{
		UserID: u.ID(), Provider: vo.ProviderLocal, Secret: "hash",
	}))
	s.Require().NoError(s.repo.Delete(s.ctx, u.ID()))

	_, err := s.repo.FindCredential(s.ctx, u.ID(), vo.ProviderLocal)
	s.ErrorIs(err, repository.ErrCredentialNotFound)
}
