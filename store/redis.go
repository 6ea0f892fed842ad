package store

import (
	"context"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fxamacker/cbor/v2"
	"github.com/redis/go-redis/v9"
)

// RedisStoreConfig configures a shared, network-accessible snapshot
// store — the choice for a fleet of chargepoint-engine hosts behind a
// load balancer, where any host must be able to resume any identity's
// session after a failover.
type RedisStoreConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string        // key namespace, defaults to "snapshot:"
	TTL      time.Duration // 0 disables expiry
	Options  *redis.Options
}

// RedisStore persists values in Redis, indexed by a set so List/Count
// don't require a KEYS scan.
type RedisStore[T any] struct {
	client *redis.Client
	prefix string
	index  string
	ttl    time.Duration

	mu     sync.RWMutex
	closed bool
}

// NewRedisStore dials addr and confirms connectivity before returning.
func NewRedisStore[T any](cfg RedisStoreConfig) (*RedisStore[T], error) {
	var client *redis.Client
	if cfg.Options != nil {
		client = redis.NewClient(cfg.Options)
	} else {
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrap(err, "store: connect to redis")
	}

	prefix := cfg.Prefix
	if prefix == "" {
		prefix = "snapshot:"
	}
	return &RedisStore[T]{client: client, prefix: prefix, index: prefix + "index", ttl: cfg.TTL}, nil
}

func (r *RedisStore[T]) key(id string) string { return r.prefix + id }

func (r *RedisStore[T]) checkOpen() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		return ErrStoreClosed
	}
	return nil
}

func (r *RedisStore[T]) Save(ctx context.Context, key string, value T) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkOpen(); err != nil {
		return err
	}

	data, err := cbor.Marshal(value)
	if err != nil {
		return errors.Wrap(err, "store: encode value")
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.key(key), data, r.ttl)
	pipe.SAdd(ctx, r.index, key)
	if _, err := pipe.Exec(ctx); err != nil {
		return errors.Wrap(err, "store: save value")
	}
	return nil
}

func (r *RedisStore[T]) Load(ctx context.Context, key string) (T, error) {
	var zero T
	if err := ctx.Err(); err != nil {
		return zero, err
	}
	if err := r.checkOpen(); err != nil {
		return zero, err
	}

	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return zero, ErrNotFound
		}
		return zero, errors.Wrap(err, "store: load value")
	}

	var value T
	if err := cbor.Unmarshal(data, &value); err != nil {
		return zero, errors.Wrap(err, "store: decode value")
	}
	return value, nil
}

func (r *RedisStore[T]) Exists(ctx context.Context, key string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if err := r.checkOpen(); err != nil {
		return false, err
	}
	n, err := r.client.Exists(ctx, r.key(key)).Result()
	if err != nil {
		return false, errors.Wrap(err, "store: check existence")
	}
	return n > 0, nil
}

func (r *RedisStore[T]) Delete(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := r.checkOpen(); err != nil {
		return err
	}
	pipe := r.client.Pipeline()
	pipe.Del(ctx, r.key(key))
	pipe.SRem(ctx, r.index, key)
	_, err := pipe.Exec(ctx)
	if err != nil {
		return errors.Wrap(err, "store: delete value")
	}
	return nil
}

func (r *RedisStore[T]) List(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := r.checkOpen(); err != nil {
		return nil, err
	}
	keys, err := r.client.SMembers(ctx, r.index).Result()
	if err != nil {
		return nil, errors.Wrap(err, "store: list keys")
	}
	return keys, nil
}

func (r *RedisStore[T]) Count(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if err := r.checkOpen(); err != nil {
		return 0, err
	}
	n, err := r.client.SCard(ctx, r.index).Result()
	if err != nil {
		return 0, errors.Wrap(err, "store: count keys")
	}
	return n, nil
}

func (r *RedisStore[T]) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrStoreClosed
	}
	r.closed = true
	return r.client.Close()
}
