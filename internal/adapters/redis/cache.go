package redisad

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"vpn_reviews/internal/adapters/observability"
)

const revalidateQueue = "revalidate:queue"

type Cache struct{ c *redis.Client }

func New(addr, pass string, db int) *Cache {
	return &Cache{c: redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db})}
}

func (r *Cache) Get(ctx context.Context, key string, dst any) (bool, error) {
	v, err := r.c.Get(ctx, key).Bytes()
	if err == redis.Nil {
		observability.ObserveCache("redis", "miss")
		return false, nil
	}
	if err != nil {
		return false, err
	}
	observability.ObserveCache("redis", "hit")
	return true, json.Unmarshal(v, dst)
}

func (r *Cache) Set(ctx context.Context, key string, v any, ttlSec int) error {
	b, _ := json.Marshal(v)
	observability.ObserveCache("redis", "set")
	return r.c.Set(ctx, key, b, time.Duration(ttlSec)*time.Second).Err()
}

func (r *Cache) Del(ctx context.Context, key string) error {
	observability.ObserveCache("redis", "del")
	return r.c.Del(ctx, key).Err()
}

// MarkStale drops every cached rendering of the provider's pages for the
// given locales and enqueues each (slug, locale) pair for the revalidator.
// The enqueue happens first so a failure after it still ends in a rebuild.
// Review-list keys carry a caller-chosen limit suffix, so they are collected
// by pattern rather than enumerated.
func (r *Cache) MarkStale(ctx context.Context, vpnSlug string, locales []string) error {
	var firstErr error
	for _, loc := range locales {
		if err := r.c.LPush(ctx, revalidateQueue, vpnSlug+":"+loc).Err(); err != nil && firstErr == nil {
			firstErr = err
		}
		keys := []string{fmt.Sprintf("page:%s:%s", vpnSlug, loc)}
		iter := r.c.Scan(ctx, 0, fmt.Sprintf("reviews:%s:%s:*", vpnSlug, loc), 0).Iterator()
		for iter.Next(ctx) {
			keys = append(keys, iter.Val())
		}
		if err := iter.Err(); err != nil && firstErr == nil {
			firstErr = err
		}
		observability.ObserveCache("redis", "del")
		if err := r.c.Del(ctx, keys...).Err(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// PopStale takes the oldest queued (slug, locale) pair, or ok=false when
// the queue is empty.
func (r *Cache) PopStale(ctx context.Context) (vpnSlug, locale string, ok bool, err error) {
	v, err := r.c.RPop(ctx, revalidateQueue).Result()
	if err == redis.Nil {
		return "", "", false, nil
	}
	if err != nil {
		return "", "", false, err
	}
	slug, loc, found := strings.Cut(v, ":")
	if !found {
		return "", "", false, fmt.Errorf("malformed queue entry %q", v)
	}
	return slug, loc, true, nil
}

// Requeue puts a pair back after a failed revalidation attempt.
func (r *Cache) Requeue(ctx context.Context, vpnSlug, locale string) error {
	return r.c.LPush(ctx, revalidateQueue, vpnSlug+":"+locale).Err()
}
