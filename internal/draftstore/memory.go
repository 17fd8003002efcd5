package draftstore

import (
	"context"
	"sync"

	"opulanz-onboarding/internal/common/logger"
)

// MemoryStore keeps encoded snapshots in process memory.
type MemoryStore struct {
	base
	mu    sync.RWMutex
	items map[string][]byte
}

func NewMemoryStore(codec Codec, log logger.Logger) *MemoryStore {
	return &MemoryStore{
		base:  newBase("memory", codec, log),
		items: make(map[string][]byte),
	}
}

func (s *MemoryStore) Save(ctx context.Context, key Key, snap Snapshot) error {
	data, err := s.codec.Encode(snap)
	s.observe("save", err)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.items[s.codec.Path(key)] = data
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Load(ctx context.Context, key Key) (Snapshot, bool, error) {
	s.mu.RLock()
	data, ok := s.items[s.codec.Path(key)]
	s.mu.RUnlock()

	s.observe("load", nil)
	if !ok {
		return Snapshot{}, false, nil
	}
	return s.decode(ctx, key, data, s.Clear)
}

func (s *MemoryStore) Clear(ctx context.Context, key Key) error {
	s.mu.Lock()
	delete(s.items, s.codec.Path(key))
	s.mu.Unlock()

	s.observe("clear", nil)
	return nil
}

// put stores raw bytes, bypassing the codec.
func (s *MemoryStore) put(key Key, data []byte) {
	s.mu.Lock()
	s.items[s.codec.Path(key)] = data
	s.mu.Unlock()
}
