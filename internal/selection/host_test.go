package selection

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"listsel/internal/logging"
)

type sliceCollection struct {
	items []any
}

func (c *sliceCollection) Len() int { return len(c.items) }

func (c *sliceCollection) At(index int) any { return c.items[index] }

func (c *sliceCollection) IndexOf(item any) int {
	for i, v := range c.items {
		if ItemsEqual(v, item) {
			return i
		}
	}
	return -1
}

func (c *sliceCollection) ContainerAt(int) Container { return nil }

type record struct {
	ID   int
	Name string
	Meta map[string]string
}

func TestResetKeepsSurvivorsInSelectionOrder(t *testing.T) {
	host, list := newTestHost(true, "a", "b", "c", "d")
	selectIndices(t, host, 3, 1, 2)

	var changes []Change
	host.Subscribe(func(c Change) { changes = append(changes, c) })
	list.Reset([]any{"x", "c", "b", "y"})

	expectItems(t, "selection", selectedItems(host), "b", "c")
	selected := host.Selected()
	if selected[0].Index() != 2 || selected[1].Index() != 1 {
		t.Fatalf("expected survivors at 2 and 1, got %d and %d", selected[0].Index(), selected[1].Index())
	}
	if selected[0].Container() != list.Row(2) || !list.Row(2).IsSelected() || !list.Row(1).IsSelected() {
		t.Fatalf("expected survivors rebound to the new rows")
	}
	if len(changes) != 1 {
		t.Fatalf("expected one notification, got %d", len(changes))
	}
	expectItems(t, "removed", changes[0].RemovedItems(), "d")
	if len(changes[0].Added) != 0 {
		t.Fatalf("expected no additions, got %v", changes[0].AddedItems())
	}
	if host.SelectedIndex() != 2 {
		t.Fatalf("expected selected index 2, got %d", host.SelectedIndex())
	}
}

func TestResetRebindsDuplicateValuesOncePerRow(t *testing.T) {
	host, list := newTestHost(true, "a", "a", "b")
	selectIndices(t, host, 0, 1)
	list.Reset([]any{"a", "b"})
	expectItems(t, "selection", selectedItems(host), "a")
	if !list.Row(0).IsSelected() {
		t.Fatalf("expected the remaining copy to be flagged")
	}
}

func TestResetToEmptyClearsSelection(t *testing.T) {
	host, list := newTestHost(true, "a", "b")
	selectIndices(t, host, 0, 1)
	list.Reset(nil)
	if host.SelectedCount() != 0 || host.SelectedIndex() != -1 {
		t.Fatalf("expected empty selection, got %d entries", host.SelectedCount())
	}
}

func TestStaleContainerFlagsFollowReselectOption(t *testing.T) {
	list := NewList("a", "b", "c")
	list.Row(1).SetSelectedCurrent(true)
	host := NewHost(list, Options{Multiple: true, ReselectStale: true})
	expectItems(t, "selection", selectedItems(host), "b")

	other := NewList("a", "b")
	other.Row(0).SetSelectedCurrent(true)
	plain := NewHost(other, Options{Multiple: true})
	if plain.SelectedCount() != 0 || other.Row(0).IsSelected() {
		t.Fatalf("expected stale flag to be cleared without reselect")
	}
}

func TestInsertAndRemoveShiftSelectedIndex(t *testing.T) {
	host, list := newTestHost(false, "a", "b", "c")
	if _, err := host.SetSelectedIndex(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := list.Insert(0, "z"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedIndex() != 3 || host.Selected()[0].Index() != 3 {
		t.Fatalf("expected selected index 3 after insert, got %d", host.SelectedIndex())
	}
	if err := list.RemoveAt(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedIndex() != 2 {
		t.Fatalf("expected selected index 2 after remove, got %d", host.SelectedIndex())
	}
}

func TestRemovingSelectedRowUnselectsIt(t *testing.T) {
	host, list := newTestHost(true, "a", "b", "b")
	selectIndices(t, host, 1, 2)
	var removed []any
	host.Subscribe(func(c Change) { removed = append(removed, c.RemovedItems()...) })
	if err := list.RemoveAt(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectItems(t, "removed", removed, "b")
	if host.SelectedCount() != 1 || host.Selected()[0].Container() != list.Row(1) {
		t.Fatalf("expected the other copy of b to stay selected")
	}
}

func TestRemoveByPositionTombstonesUnboundEntry(t *testing.T) {
	items := &sliceCollection{items: []any{"b", "a", "b"}}
	host := NewHost(items, Options{Multiple: true})
	if _, err := host.Toggle(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedIndex() != 2 {
		t.Fatalf("expected positional select to bind index 2, got %d", host.SelectedIndex())
	}

	var changes []Change
	host.Subscribe(func(c Change) { changes = append(changes, c) })
	items.items = items.items[:2]
	host.HandleChange(CollectionChange{Action: ActionRemove, Index: -1, OldIndex: 2, OldItem: "b"})

	if host.SelectedCount() != 0 {
		t.Fatalf("expected removed entry to be unselected, got %v", selectedItems(host))
	}
	if len(changes) != 1 || len(changes[0].Removed) != 1 || changes[0].Removed[0].Item() != "b" {
		t.Fatalf("expected one removal of b, got %+v", changes)
	}
}

func TestMoveKeepsMembership(t *testing.T) {
	host, list := newTestHost(true, "a", "b", "c")
	selectIndices(t, host, 0)
	var notified int
	host.Subscribe(func(Change) { notified++ })
	if err := list.Move(0, 2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if notified != 0 {
		t.Fatalf("expected move not to notify, got %d", notified)
	}
	if host.SelectedIndex() != 2 {
		t.Fatalf("expected selected index 2, got %d", host.SelectedIndex())
	}
	if err := list.Move(1, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedIndex() != 2 {
		t.Fatalf("expected selected index to stay 2, got %d", host.SelectedIndex())
	}
}

func TestReplaceUnselectsOldValue(t *testing.T) {
	host, list := newTestHost(true, "a", "b")
	selectIndices(t, host, 1)
	if err := list.Replace(1, "c"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedCount() != 0 {
		t.Fatalf("expected replaced value to be unselected, got %v", selectedItems(host))
	}
}

func TestSetMultipleFalseKeepsFirstSelected(t *testing.T) {
	host, list := newTestHost(true, "a", "b", "c")
	selectIndices(t, host, 2, 0, 1)
	change := host.SetMultiple(false)
	expectItems(t, "selection", selectedItems(host), "c")
	expectItems(t, "removed", change.RemovedItems(), "a", "b")
	if list.Row(0).IsSelected() || list.Row(1).IsSelected() || !list.Row(2).IsSelected() {
		t.Fatalf("expected only row c to stay flagged")
	}
	if change := host.SetMultiple(false); !change.Empty() {
		t.Fatalf("expected no change when the mode is unchanged")
	}
}

func TestSetSelectedValueWaitsForItems(t *testing.T) {
	list := NewList()
	host := NewHost(list, Options{ValuePath: "ID"})
	list.Subscribe(host.HandleChange)

	if change := host.SetSelectedValue(2); !change.Empty() {
		t.Fatalf("expected no change before items arrive")
	}
	if !host.WaitsForItems() {
		t.Fatalf("expected host to wait for items")
	}
	list.Reset([]any{record{ID: 1, Name: "one"}, record{ID: 2, Name: "two"}})

	if host.WaitsForItems() {
		t.Fatalf("expected wait flag to clear")
	}
	item, ok := host.SelectedItem()
	if !ok || item.(record).Name != "two" {
		t.Fatalf("expected record two to be selected, got %v", item)
	}
	value, ok := host.SelectedValue()
	if !ok || value != 2 {
		t.Fatalf("expected selected value 2, got %v", value)
	}
}

func TestSelectedValueFollowsPath(t *testing.T) {
	list := NewList(&record{ID: 1, Meta: map[string]string{"slug": "one"}}, &record{ID: 2, Meta: map[string]string{"slug": "two"}})
	host := NewHost(list, Options{ValuePath: "Meta.slug"})
	host.SetSelectedValue("two")
	if host.SelectedIndex() != 1 {
		t.Fatalf("expected index 1, got %d", host.SelectedIndex())
	}
	host.SetSelectedValuePath("ID")
	value, _ := host.SelectedValue()
	if value != 2 {
		t.Fatalf("expected value 2 after path change, got %v", value)
	}
	host.SetSelectedValue("missing")
	if host.SelectedCount() != 0 {
		t.Fatalf("expected unknown value to clear the selection")
	}
}

func TestSetSelectedItemDefersMissingItem(t *testing.T) {
	host, list := newTestHost(false, "a")
	host.SetSelectedItem("z")
	if host.SelectedCount() != 0 {
		t.Fatalf("expected missing item to be deferred")
	}
	list.Append("z")
	if item, _ := host.SelectedItem(); item != "z" {
		t.Fatalf("expected z after it arrives, got %v", item)
	}
}

func TestSetSelectedItemsIsAllOrNothing(t *testing.T) {
	host, _ := newTestHost(true, "a", "b", "c", separator("--"))
	selectIndices(t, host, 0)

	if _, err := host.SetSelectedItems([]any{"b", "missing"}); !errors.Is(err, ErrNotInCollection) {
		t.Fatalf("expected ErrNotInCollection, got %v", err)
	}
	if _, err := host.SetSelectedItems([]any{"b", separator("--")}); !errors.Is(err, ErrNotSelectable) {
		t.Fatalf("expected ErrNotSelectable, got %v", err)
	}
	expectItems(t, "selection", selectedItems(host), "a")

	change, err := host.SetSelectedItems([]any{"c", "a"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expectItems(t, "selection", selectedItems(host), "a", "c")
	expectItems(t, "added", change.AddedItems(), "c")
}

func TestContainerToggleInSingleModeReplacesSelection(t *testing.T) {
	host, list := newTestHost(false, "a", "b", "c")
	list.Row(1).SetSelectedCurrent(true)
	if _, ok := host.ContainerSelectionChanged(1); !ok {
		t.Fatalf("expected toggle to be handled")
	}
	list.Row(2).SetSelectedCurrent(true)
	host.ContainerSelectionChanged(2)
	if host.SelectedIndex() != 2 || list.Row(1).IsSelected() {
		t.Fatalf("expected c to replace b, got index %d", host.SelectedIndex())
	}
	list.Row(2).SetSelectedCurrent(false)
	host.ContainerSelectionChanged(2)
	if host.SelectedCount() != 0 {
		t.Fatalf("expected cleared flag to unselect")
	}
}

func TestSelectAllPublishesOneChange(t *testing.T) {
	host, _ := newTestHost(true, "a", separator("--"), "b", "c")
	var changes []Change
	host.Subscribe(func(c Change) { changes = append(changes, c) })
	if _, err := host.SelectAll(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(changes) != 1 || len(changes[0].Added) != 3 {
		t.Fatalf("expected one change adding three items, got %+v", changes)
	}
	host.UnselectAll()
	if host.SelectedCount() != 0 || len(changes) != 2 {
		t.Fatalf("expected unselect all to clear in one change")
	}

	single, _ := newTestHost(false, "a")
	if _, err := single.SelectAll(); !errors.Is(err, ErrSingleSelection) {
		t.Fatalf("expected ErrSingleSelection, got %v", err)
	}
}

func TestUnsubscribeStopsNotifications(t *testing.T) {
	host, _ := newTestHost(true, "a", "b")
	var count int
	unsubscribe := host.Subscribe(func(Change) { count++ })
	selectIndices(t, host, 0)
	unsubscribe()
	selectIndices(t, host, 1)
	if count != 1 {
		t.Fatalf("expected one notification, got %d", count)
	}
}

func TestEqualerItemsDisableHashing(t *testing.T) {
	host, list := newTestHost(false, "alpha")
	if !host.selected.UsesItemHashCodes() {
		t.Fatalf("expected comparable items to keep hashing")
	}
	list.Append(caseless("Beta"))
	if host.selected.UsesItemHashCodes() {
		t.Fatalf("expected Equaler item to disable hashing")
	}
	host.SetSelectedItem(caseless("beta"))
	if host.SelectedIndex() != 1 {
		t.Fatalf("expected case-insensitive match at 1, got %d", host.SelectedIndex())
	}
}

func TestCommittedBatchesAreLogged(t *testing.T) {
	var buf bytes.Buffer
	list := NewList("a", "b")
	host := NewHost(list, Options{Multiple: true, Logger: logging.New(&buf, logging.Debug)})
	selectIndices(t, host, 0, 1)
	out := buf.String()
	if !strings.Contains(out, "msg=\"selection committed\"") || !strings.Contains(out, "added=2") {
		t.Fatalf("expected commit log line, got %q", out)
	}
}

func TestSelectionActiveFlagIsStored(t *testing.T) {
	host, _ := newTestHost(true)
	host.SetSelectionActive(true)
	if !host.IsSelectionActive() {
		t.Fatalf("expected selection active flag")
	}
}

func TestToggleAfterUnknownRemoveUnselectsEntry(t *testing.T) {
	items := &sliceCollection{items: []any{"a", "b", "c"}}
	host := NewHost(items, Options{Multiple: true})
	if _, err := host.Toggle(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items.items = items.items[:2]
	host.HandleChange(CollectionChange{Action: ActionRemove, Index: -1, OldIndex: -1, OldItem: "c"})

	if !host.IsSelected(0) {
		t.Fatalf("expected a to stay selected after its position became unknown")
	}
	if _, err := host.Toggle(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedCount() != 0 {
		t.Fatalf("expected toggle to unselect a, got %v", selectedItems(host))
	}
}

func TestRemoveUnselectsEntryWithUnknownIndex(t *testing.T) {
	items := &sliceCollection{items: []any{"a", "b", "c"}}
	host := NewHost(items, Options{Multiple: true})
	if _, err := host.Toggle(2); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	items.items = append(items.items, "z")
	host.HandleChange(CollectionChange{Action: ActionAdd, Index: -1, Item: "z"})
	if idx := host.Selected()[0].Index(); idx != -1 {
		t.Fatalf("expected unknown index after unpositioned add, got %d", idx)
	}

	var changes []Change
	host.Subscribe(func(c Change) { changes = append(changes, c) })
	items.items = []any{"a", "b", "z"}
	host.HandleChange(CollectionChange{Action: ActionRemove, Index: -1, OldIndex: 2, OldItem: "c"})

	if host.SelectedCount() != 0 {
		t.Fatalf("expected removed item to be unselected, got %v", selectedItems(host))
	}
	if len(changes) != 1 {
		t.Fatalf("expected one notification, got %d", len(changes))
	}
	expectItems(t, "removed", changes[0].RemovedItems(), "c")
}


func TestDynamicallyUncomparableItemsUseLinearLookup(t *testing.T) {
	list := NewList(boxedItem{V: []int{1}}, boxedItem{V: 2})
	host := NewHost(list, Options{Multiple: true})
	list.Subscribe(host.HandleChange)
	if host.selected.UsesItemHashCodes() {
		t.Fatalf("expected a struct holding a slice to disable hashing")
	}

	if _, err := host.Toggle(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := host.Toggle(1); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedCount() != 2 || !host.IsSelected(0) || !host.IsSelected(1) {
		t.Fatalf("expected both rows selected, got %v", selectedItems(host))
	}
	if _, err := host.Toggle(0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if host.SelectedCount() != 1 || host.SelectedIndex() != 1 {
		t.Fatalf("expected only row 1 selected, got %v", selectedItems(host))
	}
}
