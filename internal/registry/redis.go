package registry

import (
	"context"

	"clfadmin/internal/cache"
)

// DefaultRedisKey is the hash holding the registry entries.
const DefaultRedisKey = "model_registry"

// RedisRegistry keeps entries in a Redis hash: field = model name, value = encoded record.
type RedisRegistry struct {
	client *cache.Client
	key    string
}

var _ Registry = (*RedisRegistry)(nil)

// NewRedisRegistry creates a registry stored under key.
func NewRedisRegistry(client *cache.Client, key string) *RedisRegistry {
	if key == "" {
		key = DefaultRedisKey
	}
	return &RedisRegistry{client: client, key: key}
}

func (r *RedisRegistry) List(ctx context.Context) ([]Entry, error) {
	fields, err := r.client.HGetAll(ctx, r.key)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0, len(fields))
	for name, raw := range fields {
		entries = append(entries, decode(name, raw))
	}
	sortEntries(entries)
	return entries, nil
}

func (r *RedisRegistry) Add(ctx context.Context, name string, rec *Record) (bool, error) {
	payload, err := encode(rec)
	if err != nil {
		return false, err
	}
	return r.client.HSetNX(ctx, r.key, name, payload)
}

func (r *RedisRegistry) Remove(ctx context.Context, name string) (bool, error) {
	return r.client.HDel(ctx, r.key, name)
}

func (r *RedisRegistry) Count(ctx context.Context) (int, error) {
	n, err := r.client.HLen(ctx, r.key)
	return int(n), err
}
