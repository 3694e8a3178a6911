package cache

import (
	"context"
	"errors"
	"time"

	rdb "github.com/redis/go-redis/v9"
)

// redisClient backend distribuido sobre go-redis. Todas las keys llevan
// el prefijo configurado para aislar servicios que comparten instancia.
type redisClient struct {
	c      *rdb.Client
	prefix string
}

// NewRedis crea un cliente Redis.
func NewRedis(addr, password string, db int, prefix string) Client {
	return &redisClient{
		c:      rdb.NewClient(&rdb.Options{Addr: addr, Password: password, DB: db}),
		prefix: prefix,
	}
}

func (r *redisClient) k(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + ":" + key
}

func (r *redisClient) Get(ctx context.Context, key string) (string, error) {
	v, err := r.c.Get(ctx, r.k(key)).Result()
	if errors.Is(err, rdb.Nil) {
		return "", ErrNotFound
	}
	return v, err
}

func (r *redisClient) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.c.Set(ctx, r.k(key), value, ttl).Err()
}

func (r *redisClient) SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if ttl < 0 {
		ttl = 0
	}
	return r.c.SetNX(ctx, r.k(key), value, ttl).Result()
}

func (r *redisClient) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.k(k)
	}
	return r.c.Del(ctx, full...).Err()
}

func (r *redisClient) Exists(ctx context.Context, key string) (bool, error) {
	n, err := r.c.Exists(ctx, r.k(key)).Result()
	return n > 0, err
}

func (r *redisClient) Incr(ctx context.Context, key string, delta int64) (int64, error) {
	return r.c.IncrBy(ctx, r.k(key), delta).Result()
}

func (r *redisClient) Expire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.c.Expire(ctx, r.k(key), ttl).Result()
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.c.Ping(ctx).Err()
}

func (r *redisClient) Close() error { return r.c.Close() }
