// Package memory keeps users in process memory. It backs STORAGE_DRIVER=memory
// and serves as the repository in use case tests.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/oksasatya/go-ddd-identity/internal/domain/domainerr"
	"github.com/oksasatya/go-ddd-identity/internal/domain/entity"
	"github.com/oksasatya/go-ddd-identity/internal/domain/repository"
	vo "github.com/oksasatya/go-ddd-identity/internal/domain/valueobject"
)

type UserRepository struct {
	mu          sync.RWMutex
	users       map[vo.UserID]entity.Snapshot
	credentials map[credentialKey]repository.Credential
}

type credentialKey struct {
	userID   vo.UserID
	provider vo.AuthProvider
}

func NewUserRepository() *UserRepository {
	return &UserRepository{
		users:       make(map[vo.UserID]entity.Snapshot),
		credentials: make(map[credentialKey]repository.Credential),
	}
}

func (r *UserRepository) FindByID(_ context.Context, id vo.UserID) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return entity.Rehydrate(s), nil
}

func (r *UserRepository) FindByEmail(_ context.Context, email vo.Email) (*entity.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.users {
		if s.Email.Equals(email) {
			return entity.Rehydrate(s), nil
		}
	}
	return nil, repository.ErrUserNotFound
}

// Save enforces email uniqueness the way a unique index would.
func (r *UserRepository) Save(_ context.Context, u *entity.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	snap := u.Snapshot()
	for id, s := range r.users {
		if s.Email.Equals(snap.Email) && !id.Equals(snap.ID) {
			return domainerr.Conflict("email is already registered")
		}
	}
	r.users[snap.ID] = snap
	return nil
}

func (r *UserRepository) Delete(_ context.Context, id vo.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(r.users, id)
	for k := range r.credentials {
		if k.userID.Equals(id) {
			delete(r.credentials, k)
		}
	}
	return nil
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email vo.Email) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == repository.ErrUserNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *UserRepository) FindActiveUsers(_ context.Context) ([]*entity.User, error) {
	return r.filter(func(s entity.Snapshot) bool { return s.Status.IsActive() }), nil
}

func (r *UserRepository) FindByEmailDomain(_ context.Context, domain string) ([]*entity.User, error) {
	domain = strings.ToLower(domain)
	return r.filter(func(s entity.Snapshot) bool { return s.Email.Domain() == domain }), nil
}

func (r *UserRepository) Count(_ context.Context) (int, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.users), nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id vo.UserID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	s.LastLoginAt = &at
	r.users[id] = s
	return nil
}

func (r *UserRepository) SaveCredential(_ context.Context, c repository.Credential) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[c.UserID]; !ok {
		return repository.ErrUserNotFound
	}
	r.credentials[credentialKey{c.UserID, c.Provider}] = c
	return nil
}

func (r *UserRepository) FindCredential(_ context.Context, userID vo.UserID, provider vo.AuthProvider) (repository.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.credentials[credentialKey{userID, provider}]
	if !ok {
		return repository.Credential{}, repository.ErrCredentialNotFound
	}
	return c, nil
}

// filter returns matches ordered by creation time.
func (r *UserRepository) filter(keep func(entity.Snapshot) bool) []*entity.User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	snaps := make([]entity.Snapshot, 0, len(r.users))
	for _, s := range r.users {
		if keep(s) {
			snaps = append(snaps, s)
		}
	}
	sort.Slice(snaps, func(i, j int) bool { return snaps[i].CreatedAt.Before(snaps[j].CreatedAt) })
	out := make([]*entity.User, 0, len(snaps))
	for _, s := range snaps {
		out = append(out, entity.Rehydrate(s))
	}
	return out
}

var (
	_ repository.UserRepository       = (*UserRepository)(nil)
	_ repository.CredentialRepository = (*UserRepository)(nil)
)
