package draftstore

import (
	"context"
	"errors"
	"time"

	"opulanz-onboarding/internal/common/logger"

	"github.com/dgraph-io/badger/v4"
)

// BadgerStore keeps drafts in an embedded badger database on local disk.
type BadgerStore struct {
	base
	db  *badger.DB
	ttl time.Duration
}

func NewBadgerStore(db *badger.DB, codec Codec, ttl time.Duration, log logger.Logger) *BadgerStore {
	return &BadgerStore{
		base: newBase("badger", codec, log),
		db:   db,
		ttl:  ttl,
	}
}

func (s *BadgerStore) Save(ctx context.Context, key Key, snap Snapshot) error {
	data, err := s.codec.Encode(snap)
	if err == nil {
		err = s.db.Update(func(txn *badger.Txn) error {
			entry := badger.NewEntry([]byte(s.codec.Path(key)), data)
			if s.ttl > 0 {
				entry = entry.WithTTL(s.ttl)
			}
			return txn.SetEntry(entry)
		})
	}
	s.observe("save", err)
	return err
}

func (s *BadgerStore) Load(ctx context.Context, key Key) (Snapshot, bool, error) {
	var data []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(s.codec.Path(key)))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		s.observe("load", nil)
		return Snapshot{}, false, nil
	}
	s.observe("load", err)
	if err != nil {
		return Snapshot{}, false, err
	}
	return s.decode(ctx, key, data, s.Clear)
}

func (s *BadgerStore) Clear(ctx context.Context, key Key) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(s.codec.Path(key)))
	})
	s.observe("clear", err)
	return err
}
