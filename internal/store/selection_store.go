package store

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

type SelectionStore interface {
	Load(ctx context.Context, list string) (*Snapshot, bool, error)
	Save(ctx context.Context, snapshot *Snapshot) error
	Delete(ctx context.Context, list string) error
	Lists(ctx context.Context) ([]string, error)
}

type bboltSelectionStore struct {
	db *bolt.DB
	mu sync.Mutex
}

func (s *bboltSelectionStore) Load(ctx context.Context, list string) (*Snapshot, bool, error) {
	list, err := normalizeListName(list)
	if err != nil {
		return nil, false, err
	}
	var (
		out *Snapshot
		ok  bool
	)
	err = s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelections)
		if b == nil {
			return nil
		}
		raw := b.Get([]byte(list))
		if len(raw) == 0 {
			return nil
		}
		var snapshot Snapshot
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return err
		}
		out = &snapshot
		ok = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return out, ok, nil
}

func (s *bboltSelectionStore) Save(ctx context.Context, snapshot *Snapshot) error {
	if snapshot == nil {
		return errors.New("snapshot is required")
	}
	list, err := normalizeListName(snapshot.List)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *snapshot
	stored.List = list
	stored.Items = append([]string{}, snapshot.Items...)
	if stored.SavedAt.IsZero() {
		stored.SavedAt = time.Now().UTC()
	}
	raw, err := json.Marshal(stored)
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelections)
		if b == nil {
			return errors.New("selections bucket missing")
		}
		return b.Put([]byte(list), raw)
	})
}

func (s *bboltSelectionStore) Delete(ctx context.Context, list string) error {
	list, err := normalizeListName(list)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelections)
		if b == nil {
			return errors.New("selections bucket missing")
		}
		return b.Delete([]byte(list))
	})
}

func (s *bboltSelectionStore) Lists(ctx context.Context) ([]string, error) {
	out := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketSelections)
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, _ []byte) error {
			out = append(out, string(k))
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(out)
	return out, nil
}
