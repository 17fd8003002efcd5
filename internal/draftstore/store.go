// Package draftstore persists in-progress wizard drafts so a user can resume later.
// Writes are last-write-wins; there is no conflict resolution.
package draftstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"opulanz-onboarding/internal/common/logger"
	"opulanz-onboarding/internal/common/metrics"
)

var (
	ErrQuotaExceeded = errors.New("DRAFT_QUOTA_EXCEEDED")
	ErrCorrupt       = errors.New("DRAFT_CORRUPT")
)

const DefaultMaxBytes = 5 * 1024 * 1024

// Key identifies one saved draft.
type Key struct {
	Namespace string
	UserRef   string
}

// String renders namespace:userRef. Stores prepend their configured prefix.
func (k Key) String() string {
	return k.Namespace + ":" + k.UserRef
}

// Snapshot is what gets stored: the draft plus enough to resume at the right step.
type Snapshot struct {
	WizardID    string                 `json:"wizardId"`
	CurrentStep int                    `json:"currentStep"`
	Draft       map[string]interface{} `json:"draft"`
	CreatedAt   time.Time              `json:"createdAt"`
	UpdatedAt   time.Time              `json:"updatedAt"`
}

type Store interface {
	Save(ctx context.Context, key Key, snap Snapshot) error
	// Load reports false when nothing usable is stored. Corrupt entries are
	// dropped and reported as not found.
	Load(ctx context.Context, key Key) (Snapshot, bool, error)
	Clear(ctx context.Context, key Key) error
	Name() string
}

// Codec turns snapshots into bytes and enforces the size quota.
type Codec struct {
	Prefix   string
	MaxBytes int
}

func (c Codec) Path(key Key) string {
	if c.Prefix == "" {
		return key.String()
	}
	return c.Prefix + ":" + key.String()
}

func (c Codec) Encode(snap Snapshot) ([]byte, error) {
	data, err := json.Marshal(snap)
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	limit := c.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}
	if len(data) > limit {
		return nil, &QuotaError{Size: len(data), Limit: limit}
	}
	return data, nil
}

// QuotaError reports an oversized snapshot. It matches ErrQuotaExceeded.
type QuotaError struct {
	Size  int
	Limit int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("%s: %d bytes exceeds %d", ErrQuotaExceeded, e.Size, e.Limit)
}

func (e *QuotaError) Unwrap() error { return ErrQuotaExceeded }

func (c Codec) Decode(data []byte) (Snapshot, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if snap.Draft == nil {
		snap.Draft = map[string]interface{}{}
	}
	return snap, nil
}

// Normalize round-trips a draft through JSON so what is saved is exactly what a
// later load returns (numbers become float64, typed slices become []interface{}).
func Normalize(draft map[string]interface{}) (map[string]interface{}, error) {
	data, err := json.Marshal(draft)
	if err != nil {
		return nil, err
	}
	out := map[string]interface{}{}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// base carries what every backend shares: codec, logger and metrics labels.
type base struct {
	codec   Codec
	log     logger.Logger
	backend string
}

func newBase(backend string, codec Codec, log logger.Logger) base {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return base{
		codec:   codec,
		log:     log.WithFields(map[string]interface{}{"component": "draftstore", "backend": backend}),
		backend: backend,
	}
}

func (b base) Name() string { return b.backend }

func (b base) observe(op string, err error) {
	metrics.DraftStoreOperations.WithLabelValues(b.backend, op, metrics.Outcome(err)).Inc()
}

// decode handles a stored payload. A corrupt one is logged, removed via drop and
// reported as missing.
func (b base) decode(ctx context.Context, key Key, data []byte, drop func(context.Context, Key) error) (Snapshot, bool, error) {
	snap, err := b.codec.Decode(data)
	if err == nil {
		return snap, true, nil
	}
	b.log.Warn("discarding unreadable draft", map[string]interface{}{
		"key":   b.codec.Path(key),
		"error": err,
	})
	if dropErr := drop(ctx, key); dropErr != nil {
		b.log.Warn("failed to clear unreadable draft", map[string]interface{}{"error": dropErr})
	}
	return Snapshot{}, false, nil
}
