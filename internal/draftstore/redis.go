package draftstore

import (
	"context"
	"errors"
	"time"

	"opulanz-onboarding/internal/common/logger"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps drafts as plain string keys with an optional TTL.
type RedisStore struct {
	base
	client redis.Cmdable
	ttl    time.Duration
}

func NewRedisStore(client redis.Cmdable, codec Codec, ttl time.Duration, log logger.Logger) *RedisStore {
	return &RedisStore{
		base:   newBase("redis", codec, log),
		client: client,
		ttl:    ttl,
	}
}

func (s *RedisStore) Save(ctx context.Context, key Key, snap Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err == nil {
		err = s.client.Set(ctx, s.codec.Path(key), data, s.ttl).Err()
	}
	s.observe("save", err)
	return err
}

func (s *RedisStore) Load(ctx context.Context, key Key) (Snapshot, bool, error) {
	data, err := s.client.Get(ctx, s.codec.Path(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		s.observe("load", nil)
		return Snapshot{}, false, nil
	}
	s.observe("load", err)
	if err != nil {
		return Snapshot{}, false, err
	}
	return s.decode(ctx, key, data, s.Clear)
}

func (s *RedisStore) Clear(ctx context.Context, key Key) error {
	err := s.client.Del(ctx, s.codec.Path(key)).Err()
	s.observe("clear", err)
	return err
}
