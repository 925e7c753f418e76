package app

import (
	"context"

	"listsel/internal/config"
	"listsel/internal/logging"
	"listsel/internal/selection"
	"listsel/internal/source"
	"listsel/internal/store"
)

func (m *Model) storeContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), storeTimeout)
}

func (m *Model) modeName() string {
	if m.host.Multiple() {
		return config.ModeMultiple
	}
	return config.ModeSingle
}

// restoreSelection queues the persisted selection. Entries are matched by
// value when the items arrive, so lines that disappeared from the item file
// stay deferred and are dropped by the next explicit selection.
func (m *Model) restoreSelection() {
	if m.repo == nil {
		return
	}
	ctx, cancel := m.storeContext()
	defer cancel()
	snapshot, ok, err := m.repo.Selections().Load(ctx, m.listName)
	if err != nil {
		m.setStatusError("restore selection: " + err.Error())
		return
	}
	if !ok {
		return
	}
	entries := decodeEntries(snapshot.Items)
	if len(entries) == 0 {
		return
	}
	if !m.host.Multiple() {
		m.host.SetSelectedItem(entries[0])
		m.restored = 1
	} else {
		for _, entry := range entries {
			if _, err := m.host.SelectedItems().Add(entry); err != nil {
				m.logger.Warn("restore entry skipped", logging.F("entry", entry.String()), logging.F("error", err))
				continue
			}
			m.restored++
		}
	}
	m.logger.Info("selection restored",
		logging.F("entries", m.restored),
		logging.F("saved_at", snapshot.SavedAt),
	)
}

func (m *Model) selectionChanged(change selection.Change) {
	m.lastChange = change
	m.persistSelection(change)
}

func (m *Model) persistSelection(change selection.Change) {
	if m.repo == nil {
		return
	}
	ctx, cancel := m.storeContext()
	defer cancel()
	if err := m.saveSnapshot(ctx); err != nil {
		m.setStatusError("save selection: " + err.Error())
		return
	}
	if change.Empty() {
		return
	}
	entry := store.HistoryEntry{
		Added:   encodeItems(change.AddedItems()),
		Removed: encodeItems(change.RemovedItems()),
		At:      m.now(),
	}
	if _, err := m.repo.History().Append(ctx, m.listName, entry); err != nil {
		m.setStatusError("record history: " + err.Error())
	}
}

func (m *Model) saveSnapshot(ctx context.Context) error {
	return m.repo.Selections().Save(ctx, &store.Snapshot{
		List:    m.listName,
		Mode:    m.modeName(),
		Items:   encodeItems(m.host.SelectedItems().Items()),
		SavedAt: m.now(),
	})
}

func encodeItems(items []any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(source.Entry); ok {
			out = append(out, entry.String())
		}
	}
	return out
}

func decodeEntries(lines []string) []source.Entry {
	out := make([]source.Entry, 0, len(lines))
	for _, line := range lines {
		if entry, ok := source.ParseLine(line); ok && !entry.IsSeparator() {
			out = append(out, entry)
		}
	}
	return out
}
