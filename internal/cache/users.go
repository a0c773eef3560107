// Package cache keeps user snapshots attached to requests and tests so
// listing a page does not read every author from the document store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cloudquiz/cloudquiz/backend/go-services/internal/models"
	"github.com/cloudquiz/cloudquiz/backend/go-services/pkg/metrics"
)

// Users caches user records by id. Get returns nil, nil on a miss.
type Users interface {
	Get(ctx context.Context, id string) (*models.UserRecord, error)
	Put(ctx context.Context, u *models.UserRecord) error
	Invalidate(ctx context.Context, id string) error
}

// RedisUsers stores snapshots as JSON under "<prefix><id>" with a fixed TTL.
type RedisUsers struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisUsers creates a Redis backed cache. Prefix may be empty.
func NewRedisUsers(client *redis.Client, prefix string, ttl time.Duration) *RedisUsers {
	if prefix == "" {
		prefix = "user:"
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisUsers{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisUsers) key(id string) string {
	return r.prefix + id
}

func (r *RedisUsers) Get(ctx context.Context, id string) (*models.UserRecord, error) {
	b, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			metrics.SnapshotCache.WithLabelValues("miss").Inc()
			return nil, nil
		}
		return nil, err
	}
	var u models.UserRecord
	if err := json.Unmarshal(b, &u); err != nil {
		// unreadable entries are dropped and treated as a miss
		_ = r.client.Del(ctx, r.key(id)).Err()
		metrics.SnapshotCache.WithLabelValues("miss").Inc()
		return nil, nil
	}
	metrics.SnapshotCache.WithLabelValues("hit").Inc()
	return &u, nil
}

func (r *RedisUsers) Put(ctx context.Context, u *models.UserRecord) error {
	if u == nil || u.ID == "" {
		return nil
	}
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, r.key(u.ID), b, r.ttl).Err()
}

func (r *RedisUsers) Invalidate(ctx context.Context, id string) error {
	return r.client.Del(ctx, r.key(id)).Err()
}

// Nop never stores anything. It is used when Redis is not configured.
type Nop struct{}

func (Nop) Get(context.Context, string) (*models.UserRecord, error) { return nil, nil }
func (Nop) Put(context.Context, *models.UserRecord) error            { return nil }
func (Nop) Invalidate(context.Context, string) error                 { return nil }
