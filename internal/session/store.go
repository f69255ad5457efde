package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrNoSession is returned when a session ID has no backing record,
// either because it never existed or because its TTL expired.
var ErrNoSession = errors.New("no such session")

// Store is the server-side session record keyed by session ID.
type Store interface {
	Set(ctx context.Context, id, identity string, ttl time.Duration) error
	Get(ctx context.Context, id string) (string, error)
	Del(ctx context.Context, id string) error
}

const keyPrefix = "session:"

// RedisStore keeps sessions in Redis so expiry rides on the key TTL.
type RedisStore struct {
	Client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{Client: client}
}

func (s *RedisStore) Set(ctx context.Context, id, identity string, ttl time.Duration) error {
	return s.Client.Set(ctx, keyPrefix+id, identity, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (string, error) {
	identity, err := s.Client.Get(ctx, keyPrefix+id).Result()
	if err == redis.Nil {
		return "", ErrNoSession
	}
	if err != nil {
		return "", err
	}
	return identity, nil
}

func (s *RedisStore) Del(ctx context.Context, id string) error {
	return s.Client.Del(ctx, keyPrefix+id).Err()
}
