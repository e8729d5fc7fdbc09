package storage

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
)

const (
	defaultScanCount = 100
	deleteBatchSize  = 1000
)

// RedisStore implements the Store interface using Redis.
type RedisStore struct {
	client    *redis.Client
	scanCount int64
}

// NewRedisStore creates a new Redis-based store with tracing and metrics
// instrumentation attached to the client.
func NewRedisStore(addr, password string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		client.Close()
		return nil, err
	}
	if err := redisotel.InstrumentMetrics(client); err != nil {
		client.Close()
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, errors.Join(ErrConnection, err)
	}

	return NewRedisStoreWithClient(client), nil
}

// NewRedisStoreWithClient wraps an existing client. The store takes ownership
// of the client and closes it on Close.
func NewRedisStoreWithClient(client *redis.Client) *RedisStore {
	return &RedisStore{
		client:    client,
		scanCount: defaultScanCount,
	}
}

// Get retrieves a value from Redis.
func (rs *RedisStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := rs.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value in Redis. A zero ttl stores the value without expiry.
func (rs *RedisStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return rs.client.Set(ctx, key, value, ttl).Err()
}

// Delete removes a value from Redis. Deleting a missing key is not an error.
func (rs *RedisStore) Delete(ctx context.Context, key string) error {
	return rs.client.Del(ctx, key).Err()
}

// DeleteByPrefix removes every key starting with prefix and returns how many
// keys were matched.
func (rs *RedisStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	keys, err := rs.scanPrefix(ctx, prefix)
	if err != nil {
		return 0, err
	}

	var errs []error
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		if err := rs.client.Del(ctx, keys[start:end]...).Err(); err != nil {
			errs = append(errs, err)
		}
	}

	return len(keys), errors.Join(errs...)
}

func (rs *RedisStore) scanPrefix(ctx context.Context, prefix string) ([]string, error) {
	match := EscapeGlob(prefix) + "*"
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64

	for {
		batch, next, err := rs.client.Scan(ctx, cursor, match, rs.scanCount).Result()
		if err != nil {
			return nil, err
		}
		// SCAN may return a key more than once.
		for _, k := range batch {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if next == 0 {
			return keys, nil
		}
		cursor = next
	}
}

// Close closes the Redis connection.
func (rs *RedisStore) Close() error {
	return rs.client.Close()
}

// Client returns the underlying Redis client.
func (rs *RedisStore) Client() *redis.Client {
	return rs.client
}

// EscapeGlob escapes Redis glob metacharacters so s matches literally.
func EscapeGlob(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ErrNotFound is returned when a key is not found.
var ErrNotFound = errors.New("key not found in store")

// ErrConnection is returned when the store cannot reach its server.
var ErrConnection = errors.New("store connection failed")
