package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const revokedKeyPrefix = "revoked_before:"

// RedisRevoker signs users out by recording a cut-off time. Tokens issued at
// or before the cut-off are rejected by the auth middleware until they would
// have expired anyway.
type RedisRevoker struct {
	client      *redis.Client
	maxTokenTTL time.Duration
	now         func() time.Time
}

func NewRedisRevoker(client *redis.Client, maxTokenTTL time.Duration) *RedisRevoker {
	return &RedisRevoker{
		client:      client,
		maxTokenTTL: maxTokenTTL,
		now:         time.Now,
	}
}

func (r *RedisRevoker) SignOut(ctx context.Context, s Session) error {
	key := revokedKeyPrefix + s.UserID.String()
	cutoff := r.now().Unix()
	if err := r.client.Set(ctx, key, cutoff, r.maxTokenTTL).Err(); err != nil {
		return fmt.Errorf("revoke session for %s: %w", s.UserID, err)
	}
	return nil
}

func (r *RedisRevoker) IsRevoked(ctx context.Context, userID uuid.UUID, issuedAt time.Time) (bool, error) {
	raw, err := r.client.Get(ctx, revokedKeyPrefix+userID.String()).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check revocation for %s: %w", userID, err)
	}

	cutoff, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return false, fmt.Errorf("corrupt revocation entry for %s: %w", userID, err)
	}
	return issuedAt.Unix() <= cutoff, nil
}
