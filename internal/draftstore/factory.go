package draftstore

import (
	"fmt"
	"time"

	"opulanz-onboarding/internal/common/config"
	"opulanz-onboarding/internal/common/logger"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
)

// Backends carries the already connected clients a backend may need. Only the one
// matching the configured backend has to be set.
type Backends struct {
	Redis  redis.Cmdable
	Badger *badger.DB
	Dynamo DynamoAPI
}

// New selects the store and history implementation from draft_store.backend.
// History lives in redis when redis is the backend, in memory otherwise.
func New(cfg config.DraftStoreConfig, b Backends, log logger.Logger) (Store, History, error) {
	codec := Codec{Prefix: cfg.KeyPrefix, MaxBytes: cfg.MaxBytes}
	ttl := time.Duration(cfg.TTLSeconds) * time.Second

	switch cfg.Backend {
	case config.BackendMemory, "":
		return NewMemoryStore(codec, log), NewMemoryHistory(), nil
	case config.BackendRedis:
		if b.Redis == nil {
			return nil, nil, fmt.Errorf("redis draft store selected but no redis client")
		}
		return NewRedisStore(b.Redis, codec, ttl, log), NewRedisHistory(b.Redis, cfg.KeyPrefix), nil
	case config.BackendBadger:
		if b.Badger == nil {
			return nil, nil, fmt.Errorf("badger draft store selected but database is not open")
		}
		return NewBadgerStore(b.Badger, codec, ttl, log), NewMemoryHistory(), nil
	case config.BackendDynamoDB:
		if b.Dynamo == nil {
			return nil, nil, fmt.Errorf("dynamodb draft store selected but no dynamodb client")
		}
		return NewDynamoStore(b.Dynamo, cfg.DynamoDB.Table, codec, ttl, log), NewMemoryHistory(), nil
	}
	return nil, nil, fmt.Errorf("unknown draft store backend %q", cfg.Backend)
}
