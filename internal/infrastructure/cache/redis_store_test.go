package cache

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/go-ddd-identity/internal/application"
	"github.com/oksasatya/go-ddd-identity/pkg/helpers"
)

func TestKeys(t *testing.T) {
	assert.Equal(t, "user:session:abc", SessionKey("abc"))
	assert.Equal(t, "user:verify:tok", VerificationKey("tok"))
}

func TestConsumeRejectsEmptyToken(t *testing.T) {
	_, err := NewVerificationStore(nil).Consume(context.Background(), "")
	assert.ErrorIs(t, err, application.ErrVerificationTokenNotFound)
}

// The tests below talk to a real Redis and only run when REDIS_ADDR is set.
func redisStores(t *testing.T) (*SessionStore, *VerificationStore) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}
	rdb := helpers.NewRedisClient(addr, os.Getenv("REDIS_PASSWORD"), 0)
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(context.Background()).Err())
	return NewSessionStore(rdb), NewVerificationStore(rdb)
}

func TestSessionStoreRoundTrip(t *testing.T) {
	sessions, _ := redisStores(t)
	ctx := context.Background()
	id := uuid.NewString()

	_, err := sessions.Get(ctx, id)
	assert.ErrorIs(t, err, application.ErrSessionNotFound)

	require.NoError(t, sessions.Put(ctx, application.Session{UserID: id, Email: "a@b.com", RefreshDigest: "d1"}, time.Minute))
	got, err := sessions.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "d1", got.RefreshDigest)

	got.DisplayName = "Ann"
	require.NoError(t, sessions.Update(ctx, got))
	ttl, err := sessions.rdb.TTL(ctx, SessionKey(id)).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))

	require.NoError(t, sessions.Delete(ctx, id))
	_, err = sessions.Get(ctx, id)
	assert.ErrorIs(t, err, application.ErrSessionNotFound)
}

func TestSessionUpdateAfterLogoutDoesNotRecreate(t *testing.T) {
	sessions, _ := redisStores(t)
	ctx := context.Background()
	id := uuid.NewString()

	err := sessions.Update(ctx, application.Session{UserID: id, DisplayName: "Ann"})
	assert.ErrorIs(t, err, application.ErrSessionNotFound)

	exists, err := sessions.rdb.Exists(ctx, SessionKey(id)).Result()
	require.NoError(t, err)
	assert.Zero(t, exists)
}

func TestVerificationTokenIsSingleUse(t *testing.T) {
	_, verifs := redisStores(t)
	ctx := context.Background()
	token := uuid.NewString()

	require.NoError(t, verifs.Save(ctx, token, "user-1", time.Minute))
	id, err := verifs.Consume(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = verifs.Consume(ctx, token)
	assert.ErrorIs(t, err, application.ErrVerificationTokenNotFound)
}
