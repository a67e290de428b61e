package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultKeyPrefix namespaces history keys.
const DefaultKeyPrefix = "marketcrew:chat"

// RedisStore keeps history in Redis so several server instances can share
// sessions.
//
// Redis data structure:
//   - Key: "{prefix}:{session_id}:history"
//   - Type: List, oldest entry at the head
//   - Value: JSON(Entry)
//
// Example:
//
//	store, err := NewRedisStore("redis://localhost:6379/0", RedisOptions{TTL: 24 * time.Hour})
type RedisStore struct {
	client    redis.UniversalClient
	ttl       time.Duration
	maxSize   int
	keyPrefix string
}

var _ Store = (*RedisStore)(nil)

// RedisOptions tunes a RedisStore.
type RedisOptions struct {
	// TTL expires idle sessions (0 = no expiry).
	TTL time.Duration

	// MaxSize caps entries per session (0 = unbounded).
	MaxSize int

	// KeyPrefix defaults to DefaultKeyPrefix.
	KeyPrefix string
}

// NewRedisStore connects to the Redis server at redisURL.
func NewRedisStore(redisURL string, opts RedisOptions) (*RedisStore, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("invalid Redis URL: %w", err)
	}
	return NewRedisStoreWithClient(redis.NewClient(parsed), opts), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client redis.UniversalClient, opts RedisOptions) *RedisStore {
	if opts.KeyPrefix == "" {
		opts.KeyPrefix = DefaultKeyPrefix
	}
	return &RedisStore{
		client:    client,
		ttl:       opts.TTL,
		maxSize:   opts.MaxSize,
		keyPrefix: opts.KeyPrefix,
	}
}

func (r *RedisStore) sessionKey(sessionID string) string {
	return fmt.Sprintf("%s:%s:history", r.keyPrefix, sessionID)
}

// Ping checks connectivity.
func (r *RedisStore) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Append pushes an entry, trims the session and refreshes its TTL in one
// pipeline.
func (r *RedisStore) Append(ctx context.Context, sessionID string, entry Entry) error {
	value, err := json.Marshal(stamp(entry))
	if err != nil {
		return fmt.Errorf("failed to serialize entry: %w", err)
	}

	key := r.sessionKey(sessionID)
	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, value)
		if r.maxSize > 0 {
			pipe.LTrim(ctx, key, int64(-r.maxSize), -1)
		}
		if r.ttl > 0 {
			pipe.Expire(ctx, key, r.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to store entry: %w", err)
	}
	return nil
}

// History returns the most recent entries of a session, oldest first.
// Malformed entries are skipped.
func (r *RedisStore) History(ctx context.Context, sessionID string, limit int) ([]Entry, error) {
	limit = normalizeLimit(limit)
	values, err := r.client.LRange(ctx, r.sessionKey(sessionID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve history: %w", err)
	}

	entries := make([]Entry, 0, len(values))
	for _, value := range values {
		var entry Entry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// Clear removes a session.
func (r *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := r.client.Del(ctx, r.sessionKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// Close closes the Redis connection.
func (r *RedisStore) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}
