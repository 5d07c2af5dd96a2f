package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisRevoker_SignOutRevokesEarlierTokens(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cutoff := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	r := NewRedisRevoker(client, 24*time.Hour)
	r.now = func() time.Time { return cutoff }

	ctx := context.Background()
	user := uuid.New()

	revoked, err := r.IsRevoked(ctx, user, cutoff.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, r.SignOut(ctx, Session{UserID: user}))
	assert.Equal(t, 24*time.Hour, mr.TTL(revokedKeyPrefix+user.String()))

	revoked, err = r.IsRevoked(ctx, user, cutoff.Add(-time.Hour))
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = r.IsRevoked(ctx, user, cutoff)
	require.NoError(t, err)
	assert.True(t, revoked)

	// a fresh sign-in after the cut-off is fine
	revoked, err = r.IsRevoked(ctx, user, cutoff.Add(time.Second))
	require.NoError(t, err)
	assert.False(t, revoked)

	revoked, err = r.IsRevoked(ctx, uuid.New(), cutoff.Add(-time.Hour))
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevoker_Errors(t *testing.T) {
	client, mock := redismock.NewClientMock()
	user := uuid.New()
	key := revokedKeyPrefix + user.String()
	r := NewRedisRevoker(client, time.Hour)

	mock.ExpectGet(key).SetErr(errors.New("i/o timeout"))
	_, err := r.IsRevoked(context.Background(), user, time.Now())
	assert.Error(t, err)

	mock.ExpectGet(key).SetVal("not-a-number")
	_, err = r.IsRevoked(context.Background(), user, time.Now())
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}
