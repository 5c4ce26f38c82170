package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// JSONStore keeps JSON encoded values under a key prefix.
type JSONStore struct {
	db     redis.UniversalClient
	prefix string
}

// NewJSONStore wraps client. Every key is stored as prefix+key.
func NewJSONStore(client redis.UniversalClient, prefix string) *JSONStore {
	return &JSONStore{db: client, prefix: prefix}
}

// Get decodes the value stored under key into dst. It reports false, with a
// nil error, when the key does not exist.
func (s *JSONStore) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, err := s.db.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, errors.Join(ErrEncoding, err)
	}
	return true, nil
}

// Set stores v under key. A zero ttl means no expiration.
func (s *JSONStore) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return errors.Join(ErrEncoding, err)
	}
	return s.db.Set(ctx, s.prefix+key, raw, ttl).Err()
}

// Delete removes keys. Missing keys are ignored.
func (s *JSONStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.db.Del(ctx, full...).Err()
}
