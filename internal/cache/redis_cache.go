package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewRedisCache(rdb *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{rdb: rdb, ttl: ttl, now: time.Now}
}

type scheduledValue struct {
	SendAt      time.Time `json:"sendAt"`
	ScheduledAt time.Time `json:"scheduledAt"`
}

func scheduledKey(contactID, remoteMessageID int64) string {
	return fmt.Sprintf("sched:%d:%d", contactID, remoteMessageID)
}

// StoreScheduled keeps the record until ttl past the send time.
func (c *RedisCache) StoreScheduled(ctx context.Context, contactID, remoteMessageID int64, sendAt time.Time) error {
	now := c.now()
	val := scheduledValue{
		SendAt:      sendAt.UTC(),
		ScheduledAt: now.UTC(),
	}

	b, err := json.Marshal(val)
	if err != nil {
		return err
	}

	ttl := c.ttl
	if until := sendAt.Sub(now); until > 0 {
		ttl += until
	}
	return c.rdb.Set(ctx, scheduledKey(contactID, remoteMessageID), b, ttl).Err()
}
