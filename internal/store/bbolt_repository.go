package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketSelections = []byte("selections")
	bucketHistory    = []byte("history")
)

type bboltRepository struct {
	db         *bolt.DB
	selections SelectionStore
	history    HistoryStore
}

func NewBboltRepository(path string) (Repository, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("repository db path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: 2 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open selection db: %w", err)
	}
	if err := initBboltSchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &bboltRepository{
		db:         db,
		selections: &bboltSelectionStore{db: db},
		history:    &bboltHistoryStore{db: db, limit: defaultHistoryLimit},
	}, nil
}

func (r *bboltRepository) Selections() SelectionStore {
	return r.selections
}

func (r *bboltRepository) History() HistoryStore {
	return r.history
}

func (r *bboltRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}

func initBboltSchema(db *bolt.DB) error {
	return db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketSelections); err != nil {
			return err
		}
		if _, err := tx.CreateBucketIfNotExists(bucketHistory); err != nil {
			return err
		}
		return nil
	})
}

func normalizeListName(list string) (string, error) {
	list = strings.TrimSpace(list)
	if list == "" {
		return "", errors.New("list name is required")
	}
	return list, nil
}
