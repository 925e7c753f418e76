package store

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultHistoryLimit = 200

// HistoryStore keeps a bounded, per-list log of selection changes. Older
// entries are pruned once the limit is reached.
type HistoryStore interface {
	Append(ctx context.Context, list string, entry HistoryEntry) (HistoryEntry, error)
	Recent(ctx context.Context, list string, limit int) ([]HistoryEntry, error)
}

type bboltHistoryStore struct {
	db    *bolt.DB
	limit int
	mu    sync.Mutex
}

func historyKey(seq uint64) []byte {
	var key [8]byte
	binary.BigEndian.PutUint64(key[:], seq)
	return key[:]
}

func (s *bboltHistoryStore) Append(ctx context.Context, list string, entry HistoryEntry) (HistoryEntry, error) {
	list, err := normalizeListName(list)
	if err != nil {
		return HistoryEntry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.At.IsZero() {
		entry.At = time.Now().UTC()
	}
	err = s.db.Update(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketHistory)
		if root == nil {
			return errors.New("history bucket missing")
		}
		b, err := root.CreateBucketIfNotExists([]byte(list))
		if err != nil {
			return err
		}
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		entry.Seq = seq
		raw, err := json.Marshal(entry)
		if err != nil {
			return err
		}
		if err := b.Put(historyKey(seq), raw); err != nil {
			return err
		}
		return s.prune(b)
	})
	if err != nil {
		return HistoryEntry{}, err
	}
	return entry, nil
}

func (s *bboltHistoryStore) prune(b *bolt.Bucket) error {
	if s.limit <= 0 {
		return nil
	}
	var keys [][]byte
	c := b.Cursor()
	for k, _ := c.First(); k != nil; k, _ = c.Next() {
		keys = append(keys, append([]byte(nil), k...))
	}
	for i := 0; i < len(keys)-s.limit; i++ {
		if err := b.Delete(keys[i]); err != nil {
			return err
		}
	}
	return nil
}

// Recent returns up to limit entries, newest first.
func (s *bboltHistoryStore) Recent(ctx context.Context, list string, limit int) ([]HistoryEntry, error) {
	list, err := normalizeListName(list)
	if err != nil {
		return nil, err
	}
	out := make([]HistoryEntry, 0)
	err = s.db.View(func(tx *bolt.Tx) error {
		root := tx.Bucket(bucketHistory)
		if root == nil {
			return nil
		}
		b := root.Bucket([]byte(list))
		if b == nil {
			return nil
		}
		c := b.Cursor()
		for k, v := c.Last(); k != nil; k, v = c.Prev() {
			if limit > 0 && len(out) >= limit {
				break
			}
			var entry HistoryEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return err
			}
			out = append(out, entry)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
