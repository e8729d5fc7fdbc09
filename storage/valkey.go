package storage

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/valkey-io/valkey-go"
)

// ValkeyStore implements the Store interface on a valkey-go client.
// Client-side caching is disabled: invalidation must reach the server.
type ValkeyStore struct {
	client    valkey.Client
	scanCount int64
}

// NewValkeyStore connects to a single Valkey (or Redis) node.
func NewValkeyStore(addr, password string, db int) (*ValkeyStore, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:       []string{addr},
		Password:          password,
		SelectDB:          db,
		DisableCache:      true,
		ForceSingleClient: true,
	})
	if err != nil {
		return nil, errors.Join(ErrConnection, err)
	}
	return &ValkeyStore{client: client, scanCount: defaultScanCount}, nil
}

// Get retrieves a value.
func (vs *ValkeyStore) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := vs.client.Do(ctx, vs.client.B().Get().Key(key).Build()).AsBytes()
	if err != nil {
		if valkey.IsValkeyNil(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return val, nil
}

// Set stores a value. A zero ttl stores the value without expiry.
func (vs *ValkeyStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	args := []string{valkey.BinaryString(value)}
	if ttl > 0 {
		args = append(args, "PX", strconv.FormatInt(ttl.Milliseconds(), 10))
	}
	cmd := vs.client.B().Arbitrary("SET").Keys(key).Args(args...).Build()
	return vs.client.Do(ctx, cmd).Error()
}

// Delete removes a value. Deleting a missing key is not an error.
func (vs *ValkeyStore) Delete(ctx context.Context, key string) error {
	return vs.client.Do(ctx, vs.client.B().Del().Key(key).Build()).Error()
}

// DeleteByPrefix removes every key starting with prefix and returns how many
// keys were matched.
func (vs *ValkeyStore) DeleteByPrefix(ctx context.Context, prefix string) (int, error) {
	match := EscapeGlob(prefix) + "*"
	count := strconv.FormatInt(vs.scanCount, 10)
	seen := make(map[string]struct{})
	var keys []string
	var cursor uint64

	for {
		cmd := vs.client.B().Arbitrary("SCAN").
			Args(strconv.FormatUint(cursor, 10), "MATCH", match, "COUNT", count).
			Build()
		entry, err := vs.client.Do(ctx, cmd).AsScanEntry()
		if err != nil {
			return 0, err
		}
		for _, k := range entry.Elements {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			keys = append(keys, k)
		}
		if entry.Cursor == 0 {
			break
		}
		cursor = entry.Cursor
	}

	var errs []error
	for start := 0; start < len(keys); start += deleteBatchSize {
		end := min(start+deleteBatchSize, len(keys))
		if err := vs.client.Do(ctx, vs.client.B().Del().Key(keys[start:end]...).Build()).Error(); err != nil {
			errs = append(errs, err)
		}
	}

	return len(keys), errors.Join(errs...)
}

// Close closes the client.
func (vs *ValkeyStore) Close() error {
	vs.client.Close()
	return nil
}
