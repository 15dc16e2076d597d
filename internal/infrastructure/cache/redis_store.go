// Package cache keeps short-lived auth state in Redis: sessions and email
// verification tokens.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
)

const (
	sessionPrefix      = "user:session:"
	verificationPrefix = "user:verify:"
)

func SessionKey(userID string) string     { return sessionPrefix + userID }
func VerificationKey(token string) string { return verificationPrefix + token }

type SessionStore struct {
	rdb redis.Cmdable
}

func NewSessionStore(rdb redis.Cmdable) *SessionStore {
	return &SessionStore{rdb: rdb}
}

func (s *SessionStore) Put(ctx context.Context, sess application.Session, ttl time.Duration) error {
	if err := helpers.RedisSetJSON(ctx, s.rdb, SessionKey(sess.UserID), sess, ttl); err != nil {
		return fmt.Errorf("put session: %w", err)
	}
	return nil
}

func (s *SessionStore) Update(ctx context.Context, sess application.Session) error {
	ok, err := helpers.RedisReplaceJSON(ctx, s.rdb, SessionKey(sess.UserID), sess)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if !ok {
		return application.ErrSessionNotFound
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (application.Session, error) {
	var sess application.Session
	ok, err := helpers.RedisGetJSON(ctx, s.rdb, SessionKey(userID), &sess)
	if err != nil {
		return application.Session{}, fmt.Errorf("get session: %w", err)
	}
	if !ok {
		return application.Session{}, application.ErrSessionNotFound
	}
	return sess, nil
}

func (s *SessionStore) Delete(ctx context.Context, userID string) error {
	return helpers.RedisDel(ctx, s.rdb, SessionKey(userID))
}

type VerificationStore struct {
	rdb redis.Cmdable
}

func NewVerificationStore(rdb redis.Cmdable) *VerificationStore {
	return &VerificationStore{rdb: rdb}
}

func (v *VerificationStore) Save(ctx context.Context, token, userID string, ttl time.Duration) error {
	return v.rdb.Set(ctx, VerificationKey(token), userID, ttl).Err()
}

// Consume reads and deletes in one round trip so a token works once.
func (v *VerificationStore) Consume(ctx context.Context, token string) (string, error) {
	if token == "" {
		return "", application.ErrVerificationTokenNotFound
	}
	userID, err := v.rdb.GetDel(ctx, VerificationKey(token)).Result()
	if errors.Is(err, redis.Nil) {
		return "", application.ErrVerificationTokenNotFound
	}
	if err != nil {
		return "", fmt.Errorf("consume verification token: %w", err)
	}
	return userID, nil
}

var (
	_ application.SessionStore      = (*SessionStore)(nil)
	_ application.VerificationStore = (*VerificationStore)(nil)
)
