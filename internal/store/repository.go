package store

import "time"

// Snapshot is the committed selection of one named list, in selection
// order.
type Snapshot struct {
	List    string    `json:"list"`
	Mode    string    `json:"mode"`
	Items   []string  `json:"items"`
	SavedAt time.Time `json:"saved_at"`
}

// HistoryEntry records one non-empty change notification.
type HistoryEntry struct {
	Seq     uint64    `json:"seq"`
	Added   []string  `json:"added,omitempty"`
	Removed []string  `json:"removed,omitempty"`
	At      time.Time `json:"at"`
}

type Repository interface {
	Selections() SelectionStore
	History() HistoryStore
	Close() error
}
