package store

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
)

// KeybindingStore persists key overrides as a command -> key JSON object.
type KeybindingStore interface {
	Load(ctx context.Context) (map[string]string, error)
	Save(ctx context.Context, bindings map[string]string) error
}

type FileKeybindingStore struct {
	path string
	mu   sync.Mutex
}

func NewFileKeybindingStore(path string) *FileKeybindingStore {
	return &FileKeybindingStore{path: path}
}

// Load returns an empty map when the file does not exist.
func (s *FileKeybindingStore) Load(ctx context.Context) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw := map[string]string{}
	if err := readJSON(s.path, &raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, err
	}
	out := make(map[string]string, len(raw))
	for command, key := range raw {
		command = strings.TrimSpace(command)
		key = strings.TrimSpace(key)
		if command == "" || key == "" {
			continue
		}
		out[command] = key
	}
	return out, nil
}

func (s *FileKeybindingStore) Save(ctx context.Context, bindings map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if bindings == nil {
		return errors.New("bindings are required")
	}
	return writeJSONAtomic(s.path, bindings)
}
