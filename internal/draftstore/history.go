package draftstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"opulanz-onboarding/internal/models"

	"github.com/redis/go-redis/v9"
)

// HistoryLimit is how many submitted applications are remembered per user.
const HistoryLimit = 10

// History remembers a user's submitted applications, newest first.
type History interface {
	Append(ctx context.Context, userRef string, md models.ApplicationMetadata) error
	List(ctx context.Context, userRef string) ([]models.ApplicationMetadata, error)
}

type MemoryHistory struct {
	mu    sync.RWMutex
	items map[string][]models.ApplicationMetadata
}

func NewMemoryHistory() *MemoryHistory {
	return &MemoryHistory{items: make(map[string][]models.ApplicationMetadata)}
}

func (h *MemoryHistory) Append(ctx context.Context, userRef string, md models.ApplicationMetadata) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := append([]models.ApplicationMetadata{md}, h.items[userRef]...)
	if len(list) > HistoryLimit {
		list = list[:HistoryLimit]
	}
	h.items[userRef] = list
	return nil
}

func (h *MemoryHistory) List(ctx context.Context, userRef string) ([]models.ApplicationMetadata, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]models.ApplicationMetadata, len(h.items[userRef]))
	copy(out, h.items[userRef])
	return out, nil
}

// RedisHistory stores the list under <prefix>:applications:<userRef>.
type RedisHistory struct {
	client redis.Cmdable
	prefix string
}

func NewRedisHistory(client redis.Cmdable, prefix string) *RedisHistory {
	return &RedisHistory{client: client, prefix: prefix}
}

func (h *RedisHistory) key(userRef string) string {
	return h.prefix + ":applications:" + userRef
}

func (h *RedisHistory) Append(ctx context.Context, userRef string, md models.ApplicationMetadata) error {
	data, err := json.Marshal(md)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	key := h.key(userRef)
	pipe := h.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	pipe.LTrim(ctx, key, 0, HistoryLimit-1)
	_, err = pipe.Exec(ctx)
	return err
}

func (h *RedisHistory) List(ctx context.Context, userRef string) ([]models.ApplicationMetadata, error) {
	raw, err := h.client.LRange(ctx, h.key(userRef), 0, HistoryLimit-1).Result()
	if err != nil {
		return nil, err
	}

	out := make([]models.ApplicationMetadata, 0, len(raw))
	for _, entry := range raw {
		var md models.ApplicationMetadata
		if err := json.Unmarshal([]byte(entry), &md); err != nil {
			continue // skip unreadable entries
		}
		out = append(out, md)
	}
	return out, nil
}
