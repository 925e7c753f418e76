package app

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"

	"listsel/internal/selection"
	"listsel/internal/source"
	"listsel/internal/store"
)

func newTestModel(t *testing.T, multiple bool, lines ...string) *Model {
	t.Helper()
	return newTestModelWithOptions(t, Options{Multiple: multiple}, lines...)
}

func newTestModelWithOptions(t *testing.T, opts Options, lines ...string) *Model {
	t.Helper()
	if opts.ItemsPath == "" {
		opts.ItemsPath = filepath.Join(t.TempDir(), "items.txt")
	}
	m := NewModel(opts)
	t.Cleanup(m.Close)
	m.Update(itemsLoadedMsg{entries: parseEntries(t, lines...)})
	return m
}

func parseEntries(t *testing.T, lines ...string) []source.Entry {
	t.Helper()
	entries := make([]source.Entry, 0, len(lines))
	for _, line := range lines {
		entry, ok := source.ParseLine(line)
		if !ok {
			t.Fatalf("unparseable test line %q", line)
		}
		entries = append(entries, entry)
	}
	return entries
}

func newTestRepository(t *testing.T) store.Repository {
	t.Helper()
	repo, err := store.NewBboltRepository(filepath.Join(t.TempDir(), "selection.db"))
	if err != nil {
		t.Fatalf("NewBboltRepository: %v", err)
	}
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func keyCode(code rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: code}
}

func keyRune(r rune) tea.KeyPressMsg {
	return tea.KeyPressMsg{Code: r, Text: string(r)}
}

func selectedLabels(m *Model) []string {
	entries := m.selectedEntries()
	out := make([]string, 0, len(entries))
	for _, entry := range entries {
		out = append(out, entry.Label)
	}
	return out
}

func expectLabels(t *testing.T, m *Model, want ...string) {
	t.Helper()
	got := selectedLabels(m)
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("expected selection %v, got %v", want, got)
	}
}

func TestToggleKeySelectsThroughRowContainer(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 1

	m.Update(keyCode(tea.KeySpace))

	if !m.host.IsSelected(1) {
		t.Fatalf("expected row 1 to be selected")
	}
	if !m.list.Row(1).IsSelected() {
		t.Fatalf("expected row flag to be set")
	}
	if len(m.lastChange.Added) != 1 || m.lastChange.Added[0].Index() != 1 {
		t.Fatalf("expected one addition at index 1, got %+v", m.lastChange.Added)
	}

	m.Update(keyCode(tea.KeySpace))
	if m.host.SelectedCount() != 0 {
		t.Fatalf("expected toggle off, got %d selected", m.host.SelectedCount())
	}
	if m.list.Row(1).IsSelected() {
		t.Fatalf("expected row flag to be cleared")
	}
}

func TestSelectJustKeyReplacesSelection(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))

	m.cursor = 1
	m.Update(keyCode(tea.KeyEnter))

	expectLabels(t, m, "beta")
	if m.host.SelectedIndex() != 1 {
		t.Fatalf("expected selected index 1, got %d", m.host.SelectedIndex())
	}
	if m.list.Row(0).IsSelected() || m.list.Row(2).IsSelected() {
		t.Fatalf("expected other row flags to be cleared")
	}
}

func TestToggleOnSeparatorWarns(t *testing.T) {
	m := newTestModel(t, true, "alpha", "---", "beta")
	m.cursor = 1

	m.Update(keyCode(tea.KeySpace))

	if m.host.SelectedCount() != 0 {
		t.Fatalf("expected separator to stay unselected")
	}
	if m.statusLevel != statusLevelWarning {
		t.Fatalf("expected warning, got %v (%q)", m.statusLevel, m.status)
	}
}

func TestSingleModeToggleReplacesSelection(t *testing.T) {
	m := newTestModel(t, false, "alpha", "beta")
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 1
	m.Update(keyCode(tea.KeySpace))

	expectLabels(t, m, "beta")
	if m.list.Row(0).IsSelected() {
		t.Fatalf("expected previous row flag to be cleared")
	}
}

func TestRestoredSelectionWaitsForItems(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()
	if err := repo.Selections().Save(ctx, &store.Snapshot{List: "default", Items: []string{"gamma|g", "beta", "gone"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	m := NewModel(Options{ItemsPath: filepath.Join(t.TempDir(), "items.txt"), Multiple: true, Repository: repo})
	defer m.Close()
	if m.host.SelectedCount() != 0 {
		t.Fatalf("expected nothing selected before items arrive, got %d", m.host.SelectedCount())
	}
	if got := len(m.host.Batch().Deferred()); got != 3 {
		t.Fatalf("expected 3 deferred entries, got %d", got)
	}

	m.Update(itemsLoadedMsg{entries: parseEntries(t, "alpha", "beta", "gamma|g")})

	expectLabels(t, m, "gamma", "beta")
	if got := len(m.host.Batch().Deferred()); got != 1 {
		t.Fatalf("expected the vanished entry to stay deferred, got %d", got)
	}
	snapshot, ok, err := repo.Selections().Load(ctx, "default")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if strings.Join(snapshot.Items, ",") != "gamma|g,beta" {
		t.Fatalf("expected persisted promotion, got %v", snapshot.Items)
	}
}

func TestRestoredSelectionInSingleModeKeepsFirstEntry(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Selections().Save(context.Background(), &store.Snapshot{List: "default", Items: []string{"beta", "alpha"}}); err != nil {
		t.Fatalf("save: %v", err)
	}

	m := newTestModelWithOptions(t, Options{Repository: repo}, "alpha", "beta")

	expectLabels(t, m, "beta")
	if m.host.SelectedIndex() != 1 {
		t.Fatalf("expected selected index 1, got %d", m.host.SelectedIndex())
	}
}

func TestSelectionChangesArePersistedWithHistory(t *testing.T) {
	repo := newTestRepository(t)
	m := newTestModelWithOptions(t, Options{Multiple: true, Repository: repo, ListName: "colors"}, "red", "green", "blue")

	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))

	ctx := context.Background()
	snapshot, ok, err := repo.Selections().Load(ctx, "colors")
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if strings.Join(snapshot.Items, ",") != "red" || snapshot.Mode != "multiple" {
		t.Fatalf("unexpected snapshot %+v", snapshot)
	}
	history, err := repo.History().Recent(ctx, "colors", 10)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
	if len(history[0].Removed) != 1 || history[0].Removed[0] != "blue" {
		t.Fatalf("expected newest entry to remove blue, got %+v", history[0])
	}
}

func TestReloadRelocatesSurvivorsAndDropsVanished(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 1
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))

	m.Update(reloadMsg{ok: true, reload: source.Reload{Entries: parseEntries(t, "beta", "delta", "alpha")}})

	expectLabels(t, m, "beta")
	if m.host.SelectedIndex() != 0 {
		t.Fatalf("expected beta relocated to index 0, got %d", m.host.SelectedIndex())
	}
	if !m.list.Row(0).IsSelected() {
		t.Fatalf("expected relocated row flag to be set")
	}
	if len(m.lastChange.Removed) != 1 || describeIdentity(m.lastChange.Removed[0]) != "gamma" {
		t.Fatalf("expected gamma removal, got %+v", m.lastChange.Removed)
	}
}

func TestReloadErrorKeepsItems(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	m.Update(reloadMsg{ok: true, reload: source.Reload{Err: os.ErrPermission}})

	if m.list.Len() != 1 {
		t.Fatalf("expected items to be kept, got %d", m.list.Len())
	}
	if m.statusLevel != statusLevelError {
		t.Fatalf("expected error status, got %v", m.statusLevel)
	}
}

func TestClosedReloadChannelStopsWatching(t *testing.T) {
	reloads := make(chan source.Reload)
	close(reloads)
	m := newTestModelWithOptions(t, Options{Reloads: reloads}, "alpha")

	msg := m.waitForReloadCmd()()
	_, cmd := m.Update(msg)
	if cmd != nil {
		t.Fatalf("expected no further reload command")
	}
	if m.waitForReloadCmd() != nil {
		t.Fatalf("expected watching to stop")
	}
}

func TestAddItemInsertsAfterCursorAndSavesFile(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta")
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))

	m.Update(keyRune('a'))
	if !m.adding {
		t.Fatalf("expected add prompt to open")
	}
	m.input.SetValue("delta|d")
	_, cmd := m.Update(keyCode(tea.KeyEnter))
	if m.adding {
		t.Fatalf("expected add prompt to close")
	}
	if cmd == nil {
		t.Fatalf("expected save command")
	}
	if entry, _ := m.entryAt(1); entry.Label != "delta" || entry.Value != "d" {
		t.Fatalf("expected delta at index 1, got %+v", entry)
	}
	if m.cursor != 1 {
		t.Fatalf("expected cursor on new item, got %d", m.cursor)
	}
	expectLabels(t, m, "alpha")

	saved, ok := cmd().(itemsSavedMsg)
	if !ok || saved.err != nil {
		t.Fatalf("expected successful save, got %#v", saved)
	}
	data, err := os.ReadFile(m.itemsPath)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if string(data) != "alpha\ndelta|d\nbeta\n" {
		t.Fatalf("unexpected file contents %q", string(data))
	}
}

func TestAddItemCancelLeavesListUnchanged(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	m.Update(keyRune('a'))
	m.input.SetValue("beta")
	m.Update(keyCode(tea.KeyEscape))

	if m.adding {
		t.Fatalf("expected prompt to close")
	}
	if m.list.Len() != 1 {
		t.Fatalf("expected one item, got %d", m.list.Len())
	}
}

func TestDeleteItemUnselectsIt(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 1
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))

	m.cursor = 1
	_, cmd := m.Update(keyRune('d'))
	if cmd == nil {
		t.Fatalf("expected save command")
	}

	expectLabels(t, m, "gamma")
	if m.host.SelectedIndex() != 1 {
		t.Fatalf("expected gamma shifted to index 1, got %d", m.host.SelectedIndex())
	}
}

func TestMoveItemKeepsSelectionBound(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))

	m.Update(keyRune('J'))
	m.Update(keyRune('J'))

	if m.cursor != 2 {
		t.Fatalf("expected cursor to follow the item, got %d", m.cursor)
	}
	if !m.host.IsSelected(2) || m.host.SelectedIndex() != 2 {
		t.Fatalf("expected alpha selected at index 2, got %d", m.host.SelectedIndex())
	}
}

func TestToggleModeKeepsFirstSelectedEntry(t *testing.T) {
	m := newTestModel(t, true, "alpha", "beta", "gamma")
	m.cursor = 2
	m.Update(keyCode(tea.KeySpace))
	m.cursor = 0
	m.Update(keyCode(tea.KeySpace))

	m.Update(keyRune('m'))

	if m.host.Multiple() {
		t.Fatalf("expected single selection")
	}
	expectLabels(t, m, "gamma")
	if m.list.Row(0).IsSelected() {
		t.Fatalf("expected trimmed row flag to be cleared")
	}
}

func TestSelectAllSkipsSeparatorsAndWarnsInSingleMode(t *testing.T) {
	m := newTestModel(t, true, "alpha", "---", "beta")
	m.Update(tea.KeyPressMsg{Code: 'a', Mod: tea.ModCtrl})
	expectLabels(t, m, "alpha", "beta")

	m.Update(keyRune('c'))
	if m.host.SelectedCount() != 0 {
		t.Fatalf("expected clear to unselect everything")
	}

	single := newTestModel(t, false, "alpha", "beta")
	single.Update(tea.KeyPressMsg{Code: 'a', Mod: tea.ModCtrl})
	if single.host.SelectedCount() != 0 {
		t.Fatalf("expected no selection in single mode")
	}
	if single.statusLevel != statusLevelWarning {
		t.Fatalf("expected warning, got %v", single.statusLevel)
	}
}

func TestKeybindingOverrideRoutesCommand(t *testing.T) {
	m := newTestModelWithOptions(t, Options{
		Multiple:    true,
		Keybindings: NewKeybindings(map[string]string{KeyCommandToggle: "x"}),
	}, "alpha", "beta")

	m.Update(keyRune('x'))
	if !m.host.IsSelected(0) {
		t.Fatalf("expected override key to toggle")
	}
}

func TestHelpOverlayOpensAndCloses(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 30})

	m.Update(keyRune('?'))
	if !m.showHelp {
		t.Fatalf("expected help overlay")
	}
	if view := m.render(); !strings.Contains(view, "Keys") {
		t.Fatalf("expected help content in view")
	}
	m.Update(keyRune(' '))
	if m.host.SelectedCount() != 0 {
		t.Fatalf("expected keys to be routed to help while open")
	}
	m.Update(keyCode(tea.KeyEscape))
	if m.showHelp {
		t.Fatalf("expected help overlay to close")
	}
}

func TestViewRendersMarkersAndSelectionLine(t *testing.T) {
	m := newTestModelWithOptions(t, Options{Multiple: true, ValuePath: "Value"}, "alpha|a", "beta|b")
	m.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	m.cursor = 1
	m.Update(keyCode(tea.KeySpace))

	view := m.render()
	for _, want := range []string{"[x]", "[ ]", "index=1", "item=beta", "value=b", "+beta", "1/2 selected"} {
		if !strings.Contains(view, want) {
			t.Fatalf("expected view to contain %q:\n%s", want, view)
		}
	}
}

func TestViewRunsInAltScreen(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	v := m.View()
	if !v.AltScreen {
		t.Fatalf("expected the view to request the alternate screen")
	}
	if v.Content == nil {
		t.Fatalf("expected view content")
	}
}

func TestStatusExpires(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	if m.status == "" {
		t.Fatalf("expected load status")
	}
	m.Update(statusExpiredMsg{at: m.statusUntil})
	if m.status != "" {
		t.Fatalf("expected status to clear, got %q", m.status)
	}
}

func TestQuitKeyQuits(t *testing.T) {
	m := newTestModel(t, true, "alpha")
	_, cmd := m.Update(keyRune('q'))
	if cmd == nil {
		t.Fatalf("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("expected quit message")
	}
}

var _ selection.Observer = (*recordingObserver)(nil)

type recordingObserver struct {
	committed int
	deferred  int
	promoted  int
}

func (o *recordingObserver) BatchCommitted(selection.Change, int) { o.committed++ }
func (o *recordingObserver) BatchCancelled()                      {}
func (o *recordingObserver) SelectionDeferred(any)                { o.deferred++ }
func (o *recordingObserver) DeferredPromoted(any)                 { o.promoted++ }

func TestObserverSeesRestoreAndPromotion(t *testing.T) {
	repo := newTestRepository(t)
	if err := repo.Selections().Save(context.Background(), &store.Snapshot{List: "default", Items: []string{"beta"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	observer := &recordingObserver{}
	newTestModelWithOptions(t, Options{Multiple: true, Repository: repo, Observer: observer}, "alpha", "beta")

	if observer.deferred != 1 || observer.promoted != 1 {
		t.Fatalf("expected one deferral and one promotion, got %+v", observer)
	}
	if observer.committed == 0 {
		t.Fatalf("expected committed batches")
	}
}
