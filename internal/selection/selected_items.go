package selection

import "fmt"

// SelectedItems is the ordered multi-selection view of a Host. Reads are
// always allowed; edits require multiple selection and are applied as
// batches, so each edit publishes at most one Change.
type SelectedItems struct {
	host *Host
}

func (v *SelectedItems) Len() int {
	return v.host.selected.Len()
}

func (v *SelectedItems) At(i int) any {
	return v.host.selected.At(i).Item()
}

func (v *SelectedItems) Items() []any {
	return identityItems(v.host.selected.Items())
}

func (v *SelectedItems) Contains(item any) bool {
	_, ok := v.host.selected.FindMatch(Unresolved(item))
	return ok
}

func (v *SelectedItems) editable() error {
	if !v.host.multiple {
		return ErrSingleSelection
	}
	if v.host.batchActive() {
		v.host.contractViolation("selected items edited during a batch")
	}
	return nil
}

func (v *SelectedItems) checkIndex(i, n int) error {
	if i < 0 || i >= n {
		return fmt.Errorf("%w: %d", ErrIndexOutOfRange, i)
	}
	return nil
}

// Add selects item. An item that is not in the collection yet is deferred
// and selected when it arrives. Adding a value that is already selected
// selects its next unselected copy, if the collection has one.
func (v *SelectedItems) Add(item any) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	if !v.host.isSelectable(item) {
		return Change{}, fmt.Errorf("%w: %v", ErrNotSelectable, item)
	}
	return v.host.inBatch(func(b *Batch) {
		b.Select(Unresolved(item), false)
	}), nil
}

// Insert selects item and places it at position i of the selection order.
func (v *SelectedItems) Insert(i int, item any) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	if err := v.checkIndex(i, v.Len()+1); err != nil {
		return Change{}, err
	}
	change, err := v.Add(item)
	if err != nil || len(change.Added) != 1 {
		return change, err
	}
	v.host.selected.move(v.host.selected.Len()-1, i)
	v.host.updatePublicSelectionProperties()
	return change, nil
}

func (v *SelectedItems) Remove(item any) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	return v.host.inBatch(func(b *Batch) {
		b.Unselect(Unresolved(item))
	}), nil
}

func (v *SelectedItems) RemoveAt(i int) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	if err := v.checkIndex(i, v.Len()); err != nil {
		return Change{}, err
	}
	stored := v.host.selected.At(i)
	return v.host.inBatch(func(b *Batch) {
		b.Unselect(stored)
	}), nil
}

// Replace swaps the entry at position i for item, keeping the position.
func (v *SelectedItems) Replace(i int, item any) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	if err := v.checkIndex(i, v.Len()); err != nil {
		return Change{}, err
	}
	if !v.host.isSelectable(item) {
		return Change{}, fmt.Errorf("%w: %v", ErrNotSelectable, item)
	}
	stored := v.host.selected.At(i)
	change := v.host.inBatch(func(b *Batch) {
		b.Unselect(stored)
		b.Select(Unresolved(item), false)
	})
	if len(change.Added) == 1 {
		last := v.host.selected.Len() - 1
		if i > last {
			i = last
		}
		v.host.selected.move(last, i)
		v.host.updatePublicSelectionProperties()
	}
	return change, nil
}

// Move reorders the selection. Membership does not change, so no Change
// is published.
func (v *SelectedItems) Move(from, to int) error {
	if err := v.editable(); err != nil {
		return err
	}
	n := v.Len()
	if err := v.checkIndex(from, n); err != nil {
		return err
	}
	if err := v.checkIndex(to, n); err != nil {
		return err
	}
	v.host.selected.move(from, to)
	v.host.updatePublicSelectionProperties()
	return nil
}

func (v *SelectedItems) Clear() (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	return v.host.UnselectAll(), nil
}

// Reset replaces the selection with items. Entries already selected stay
// selected and do not show up in the Change.
func (v *SelectedItems) Reset(items []any) (Change, error) {
	if err := v.editable(); err != nil {
		return Change{}, err
	}
	v.host.Batch().ClearDeferred()
	return v.host.inBatch(func(b *Batch) {
		for _, stored := range v.host.selected.Items() {
			b.Unselect(stored)
		}
		for _, item := range items {
			b.Select(Unresolved(item), false)
		}
	}), nil
}
