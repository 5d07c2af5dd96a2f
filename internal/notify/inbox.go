package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	inboxKeyPrefix = "notifications:"
	inboxMaxItems  = 50
	inboxTTL       = 24 * time.Hour
)

// RedisInbox keeps the pending toasts of each user until the front-end drains them.
type RedisInbox struct {
	client *redis.Client
}

func NewRedisInbox(client *redis.Client) *RedisInbox {
	return &RedisInbox{client: client}
}

func inboxKey(userID uuid.UUID) string {
	return inboxKeyPrefix + userID.String()
}

func (r *RedisInbox) Deliver(ctx context.Context, n Notification) error {
	data, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	key := inboxKey(n.UserID)
	pipe := r.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, -inboxMaxItems, -1)
	pipe.Expire(ctx, key, inboxTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store notification: %w", err)
	}
	return nil
}

// Drain returns the user's pending notifications, oldest first, and clears them.
func (r *RedisInbox) Drain(ctx context.Context, userID uuid.UUID) ([]Notification, error) {
	key := inboxKey(userID)

	pipe := r.client.TxPipeline()
	items := pipe.LRange(ctx, key, 0, -1)
	pipe.Del(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("drain notifications: %w", err)
	}

	out := make([]Notification, 0, len(items.Val()))
	for _, raw := range items.Val() {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		out = append(out, n)
	}
	return out, nil
}
