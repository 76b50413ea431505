package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// redisStore implements Store using Redis, for headless deployments that
// keep a session across restarts or share it between replicas.
type redisStore struct {
	client *redis.Client
	key    string
	ttl    time.Duration
}

// Load implements Store.
func (s *redisStore) Load(ctx context.Context) (*Session, error) {
	val, err := s.client.Get(ctx, s.key).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal([]byte(val), &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

// Save implements Store.
func (s *redisStore) Save(ctx context.Context, sess *Session) error {
	b, err := json.Marshal(sess)
	if err != nil {
		return err
	}

	ttl := s.ttl
	if !sess.ExpiresAt.IsZero() {
		// Let the key die with the token.
		if remaining := time.Until(sess.ExpiresAt); remaining > 0 {
			ttl = remaining
		}
	}
	return s.client.Set(ctx, s.key, string(b), ttl).Err()
}

// Clear implements Store.
func (s *redisStore) Clear(ctx context.Context) error {
	return s.client.Del(ctx, s.key).Err()
}

// Close implements Store.
func (s *redisStore) Close() error {
	return s.client.Close()
}
