package notify

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newInbox(t *testing.T) (*RedisInbox, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisInbox(client), mr
}

func TestRedisInbox_DeliverAndDrain(t *testing.T) {
	inbox, mr := newInbox(t)
	ctx := context.Background()
	user := uuid.New()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	require.NoError(t, inbox.Deliver(ctx, Notification{Kind: KindAccessDenied, UserID: user, Message: "one", At: at}))
	require.NoError(t, inbox.Deliver(ctx, Notification{Kind: KindSessionTerminated, UserID: user, Message: "two", At: at}))

	assert.Equal(t, inboxTTL, mr.TTL(inboxKey(user)))

	got, err := inbox.Drain(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "one", got[0].Message)
	assert.Equal(t, KindSessionTerminated, got[1].Kind)
	assert.True(t, at.Equal(got[1].At))

	again, err := inbox.Drain(ctx, user)
	require.NoError(t, err)
	assert.Empty(t, again)
	assert.False(t, mr.Exists(inboxKey(user)))
}

func TestRedisInbox_KeepsNewestItems(t *testing.T) {
	inbox, _ := newInbox(t)
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < inboxMaxItems+5; i++ {
		require.NoError(t, inbox.Deliver(ctx, Notification{Kind: KindAccessDenied, UserID: user, Message: fmt.Sprint(i)}))
	}

	got, err := inbox.Drain(ctx, user)
	require.NoError(t, err)
	require.Len(t, got, inboxMaxItems)
	assert.Equal(t, "5", got[0].Message)
	assert.Equal(t, fmt.Sprint(inboxMaxItems+4), got[len(got)-1].Message)
}

func TestRedisInbox_UsersAreIsolated(t *testing.T) {
	inbox, _ := newInbox(t)
	ctx := context.Background()
	a, b := uuid.New(), uuid.New()

	require.NoError(t, inbox.Deliver(ctx, Notification{Kind: KindAccessDenied, UserID: a}))

	got, err := inbox.Drain(ctx, b)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRedisInbox_RedisUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer client.Close()
	inbox := NewRedisInbox(client)
	mr.Close()

	ctx := context.Background()
	err = inbox.Deliver(ctx, Notification{Kind: KindAccessDenied, UserID: uuid.New()})
	assert.Error(t, err)

	_, err = inbox.Drain(ctx, uuid.New())
	assert.Error(t, err)
}
