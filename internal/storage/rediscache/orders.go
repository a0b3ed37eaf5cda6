// Package rediscache decorates the order repository with a Redis
// read-through cache for single-order lookups.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/novashop/order-service/internal/domain/order"
)

var _ order.Repository = (*CachedRepository)(nil)

// CachedRepository serves FindByID from Redis when possible and writes
// through on Insert and UpdateStatus. Cache failures degrade to the
// underlying repository and are never fatal: Redis is an accelerator here,
// not a source of truth.
type CachedRepository struct {
	next   order.Repository
	client *redis.Client
	ttl    time.Duration
	lg     *zap.Logger
}

// New wraps next with a Redis cache using the given client and entry TTL.
func New(next order.Repository, client *redis.Client, ttl time.Duration, lg *zap.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		client: client,
		ttl:    ttl,
		lg:     lg,
	}
}

func cacheKey(id string) string {
	return "order:" + id
}

// Insert delegates to the underlying repository and caches the stored record.
func (r *CachedRepository) Insert(ctx context.Context, o *order.Order) (*order.Order, error) {
	stored, err := r.next.Insert(ctx, o)
	if err != nil {
		return nil, err
	}
	r.set(ctx, stored)
	return stored, nil
}

// FindByID returns a cached record when present, falling back to the
// underlying repository and populating the cache on a miss.
func (r *CachedRepository) FindByID(ctx context.Context, id string) (*order.Order, error) {
	data, err := r.client.Get(ctx, cacheKey(id)).Bytes()
	if err == nil {
		var o order.Order
		if err := json.Unmarshal(data, &o); err == nil {
			return &o, nil
		}
		// Unreadable entry: drop it and fall through to the repository.
		r.client.Del(ctx, cacheKey(id))
	} else if !errors.Is(err, redis.Nil) {
		r.lg.Warn("order cache read failed", zap.String("order_id", id), zap.Error(err))
	}

	o, err := r.next.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	r.set(ctx, o)
	return o, nil
}

// UpdateStatus delegates to the underlying repository and refreshes the
// cached record with the updated row.
func (r *CachedRepository) UpdateStatus(ctx context.Context, id string, status order.Status) (*order.Order, error) {
	o, err := r.next.UpdateStatus(ctx, id, status)
	if err != nil {
		if errors.Is(err, order.ErrNotFound) {
			r.client.Del(ctx, cacheKey(id))
		}
		return nil, err
	}
	r.set(ctx, o)
	return o, nil
}

// List always hits the underlying repository; the full listing is not cached.
func (r *CachedRepository) List(ctx context.Context) ([]order.Order, error) {
	return r.next.List(ctx)
}

// set stores the order in Redis, best-effort.
func (r *CachedRepository) set(ctx context.Context, o *order.Order) {
	data, err := json.Marshal(o)
	if err != nil {
		r.lg.Warn("order cache marshal failed", zap.String("order_id", o.ID), zap.Error(err))
		return
	}
	if err := r.client.Set(ctx, cacheKey(o.ID), data, r.ttl).Err(); err != nil {
		r.lg.Warn("order cache write failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}
