package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"attenddash/internal/backend"
)

const redisKeyPrefix = "attenddash:session:"

// RedisStore keeps credentials in redis so sessions survive a dashboard
// restart. Entries carry a TTL matching the session lifetime.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to redis with short timeouts.
func NewRedisStore(addr string, ttl time.Duration) *RedisStore {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  1 * time.Second,
		WriteTimeout: 1 * time.Second,
	})
	return &RedisStore{client: client, ttl: ttl}
}

// Save stores the credential under id with the session TTL.
func (r *RedisStore) Save(ctx context.Context, id string, cred backend.Credential) error {
	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, redisKeyPrefix+id, data, r.ttl).Err()
}

// Read returns the credential for id and whether one is present.
func (r *RedisStore) Read(ctx context.Context, id string) (backend.Credential, bool, error) {
	data, err := r.client.Get(ctx, redisKeyPrefix+id).Bytes()
	if err == redis.Nil {
		return backend.Credential{}, false, nil
	}
	if err != nil {
		return backend.Credential{}, false, err
	}
	var cred backend.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		return backend.Credential{}, false, err
	}
	return cred, true, nil
}

// Clear removes the credential for id.
func (r *RedisStore) Clear(ctx context.Context, id string) error {
	return r.client.Del(ctx, redisKeyPrefix+id).Err()
}

// Healthy verifies redis connectivity.
func (r *RedisStore) Healthy(ctx context.Context) bool {
	if r == nil || r.client == nil {
		return false
	}
	return r.client.Ping(ctx).Err() == nil
}
