package selection

// Batch collects select and unselect requests and commits them to the
// host's selected set as one change. A host owns exactly one Batch.
//
// Nothing in the selected set changes until End; Cancel discards the
// pending requests. Starting a batch while one is active, or ending one
// that was never started, is a programming error and panics.
type Batch struct {
	host          *Host
	active        bool
	toSelect      *Set
	toUnselect    *Set
	toDeferSelect []any
}

func newBatch(host *Host) *Batch {
	hashed := host.selected.UsesItemHashCodes()
	return &Batch{
		host:       host,
		toSelect:   newPendingSet(hashed),
		toUnselect: newPendingSet(hashed),
	}
}

func (b *Batch) IsActive() bool {
	return b.active
}

// Deferred returns the items waiting to appear in the collection.
func (b *Batch) Deferred() []any {
	return append([]any(nil), b.toDeferSelect...)
}

func (b *Batch) ClearDeferred() {
	b.toDeferSelect = nil
}

func (b *Batch) setUsesItemHashCodes(enabled bool) {
	b.toSelect.SetUsesItemHashCodes(enabled)
	b.toUnselect.SetUsesItemHashCodes(enabled)
}

func (b *Batch) Begin() {
	if b.active {
		b.host.contractViolation("Begin called while a batch is active")
	}
	b.active = true
	b.toSelect.Clear()
	b.toUnselect.Clear()
}

func (b *Batch) requireActive(op string) {
	if !b.active {
		b.host.contractViolation(op + " called outside a batch")
	}
}

// Select queues id for selection and reports whether the request changed
// the pending state. Items that are not selectable, already selected or
// already queued are ignored. When assumeInCollection is false and the
// item is not in the collection yet, the request is deferred until it
// shows up.
func (b *Batch) Select(id Identity, assumeInCollection bool) bool {
	b.requireActive("Select")
	h := b.host
	item := id.Item()
	if !h.isSelectable(item) {
		return false
	}
	if !assumeInCollection && !h.contains(item) {
		if !b.isDeferred(item) {
			b.toDeferSelect = append(b.toDeferSelect, item)
			h.observer.SelectionDeferred(item)
		}
		return false
	}

	key := id.Key()
	if b.toUnselect.Remove(key) {
		return true
	}
	if h.selected.containsExact(id) {
		return false
	}
	if b.toSelect.containsExact(id) {
		return false
	}
	if !h.multiple && b.toSelect.Len() > 0 {
		for _, queued := range b.toSelect.Items() {
			if !h.selected.containsExact(queued) {
				setContainerSelected(queued.Container(), false)
			}
		}
		b.toSelect.Clear()
	}
	b.toSelect.Add(id)
	return true
}

// Unselect queues id for removal from the selection. A pending select of
// the same item is cancelled instead.
func (b *Batch) Unselect(id Identity) bool {
	b.requireActive("Unselect")
	h := b.host
	b.removeDeferred(id.Item())

	if b.toSelect.Remove(id.Key()) {
		return true
	}
	if id.IsResolved() {
		if !h.selected.containsExact(id) {
			return false
		}
	} else if _, ok := h.selected.FindMatch(id); !ok {
		return false
	}
	if b.toUnselect.containsExact(id) {
		return false
	}
	b.toUnselect.Add(id)
	return true
}

// End commits the pending requests and publishes at most one change
// notification. The returned Change is empty when nothing moved.
func (b *Batch) End() Change {
	b.requireActive("End")
	var change Change
	func() {
		defer b.cleanup()
		b.promoteDeferred()
		b.applyCanSelectMultiple()
		b.createDeltaSelectionChange(&change)
		b.host.updatePublicSelectionProperties()
	}()
	b.host.committed(change)
	return change
}

// Cancel drops the pending requests without touching the selection.
func (b *Batch) Cancel() {
	b.requireActive("Cancel")
	b.cleanup()
	b.host.observer.BatchCancelled()
}

func (b *Batch) cleanup() {
	b.active = false
	b.toSelect.Clear()
	b.toUnselect.Clear()
}

// SelectJustThisItem makes id the only selected entry. When several
// selected entries match id, the one earliest in selection order survives.
func (b *Batch) SelectJustThisItem(id Identity, assumeInCollection bool) (change Change) {
	b.Begin()
	b.ClearDeferred()
	defer func() {
		change = b.End()
	}()

	eq := matchEq
	if id.IsResolved() {
		eq = exactEq
	}
	selected := b.host.selected.Items()
	survivor := -1
	if !ItemsEqual(id.Item(), Unset) {
		for i, stored := range selected {
			if eq(stored, id) {
				survivor = i
				break
			}
		}
	}
	for i := len(selected) - 1; i >= 0; i-- {
		if i != survivor {
			b.Unselect(selected[i])
		}
	}
	if survivor < 0 && !ItemsEqual(id.Item(), Unset) {
		b.Select(id, assumeInCollection)
	}
	return change
}

func (b *Batch) isDeferred(item any) bool {
	for _, deferred := range b.toDeferSelect {
		if ItemsEqual(deferred, item) {
			return true
		}
	}
	return false
}

func (b *Batch) removeDeferred(item any) {
	for i, deferred := range b.toDeferSelect {
		if ItemsEqual(deferred, item) {
			b.toDeferSelect = append(b.toDeferSelect[:i], b.toDeferSelect[i+1:]...)
			return
		}
	}
}

// promoteDeferred queues deferred items that are now in the collection.
// In single-selection mode only the most recent one can win, and only if
// nothing else was requested in this batch.
func (b *Batch) promoteDeferred() {
	h := b.host
	if len(b.toDeferSelect) == 0 {
		return
	}
	kept := b.toDeferSelect[:0]
	var present []any
	for _, item := range b.toDeferSelect {
		if h.contains(item) {
			present = append(present, item)
			continue
		}
		kept = append(kept, item)
	}
	b.toDeferSelect = kept
	if len(present) == 0 {
		return
	}
	if !h.multiple {
		if b.toSelect.Len() > 0 {
			return
		}
		present = present[len(present)-1:]
	}
	for _, item := range present {
		b.toSelect.Add(Unresolved(item))
		h.observer.DeferredPromoted(item)
	}
}

func (b *Batch) applyCanSelectMultiple() {
	h := b.host
	if h.multiple {
		return
	}
	if b.toSelect.Len() > 1 {
		h.contractViolation("more than one pending selection in single-selection mode")
	}
	selected := h.selected.Items()
	if b.toSelect.Len() == 1 {
		b.toUnselect.Clear()
		for _, id := range selected {
			b.toUnselect.Add(id)
		}
		return
	}
	if len(selected) > 1 && len(selected) != b.toUnselect.Len()+1 {
		b.toUnselect.Clear()
		for _, id := range selected[1:] {
			b.toUnselect.Add(id)
		}
	}
}

// createDeltaSelectionChange applies unselections before selections, and
// within each phase resolved requests before unresolved ones, so a slot
// freed by one request is not claimed by an unrelated unresolved match.
func (b *Batch) createDeltaSelectionChange(change *Change) {
	if b.toUnselect.Len() == 0 && b.toSelect.Len() == 0 {
		return
	}
	b.applyUnselections(change)
	b.applySelections(change)
}

func (b *Batch) applyUnselections(change *Change) {
	selected := b.host.selected
	release := selected.DeferRemove()
	defer release()

	pending := b.toUnselect.Items()
	if b.toUnselect.ResolvedCount() > 0 {
		for _, id := range pending {
			if id.IsResolved() {
				b.doUnselect(id, change)
			}
		}
	}
	if b.toUnselect.UnresolvedCount() > 0 {
		for _, id := range pending {
			if id.IsResolved() {
				continue
			}
			if match, ok := selected.FindMatch(id); ok {
				b.doUnselect(match, change)
			}
		}
	}
}

// applySelections binds resolved requests and requests that still point
// at a valid position first, then scans the collection once for the rest.
func (b *Batch) applySelections(change *Change) {
	h := b.host
	release := b.toSelect.DeferRemove()
	defer release()

	for _, id := range b.toSelect.Items() {
		switch {
		case id.IsResolved():
			b.doSelect(h.locate(id), change)
			b.toSelect.removeExact(id)
		case h.holdsAt(id):
			b.doSelect(h.identityAt(id.Index()), change)
			b.toSelect.removeExact(id)
		}
	}
	for index := 0; b.toSelect.UnresolvedCount() > 0 && index < h.items.Len(); index++ {
		candidate := h.identityAt(index)
		key := candidate.Key()
		if b.toSelect.Contains(key) && !h.selected.containsExact(candidate) {
			b.doSelect(candidate, change)
			b.toSelect.Remove(key)
		}
	}
}

func (b *Batch) doSelect(id Identity, change *Change) {
	selected := b.host.selected
	if selected.containsExact(id) {
		return
	}
	selected.Add(id)
	setContainerSelected(id.Container(), true)
	change.Added = append(change.Added, id)
}

func (b *Batch) doUnselect(id Identity, change *Change) {
	stored, ok := b.host.selected.remove(id, exactEq)
	if !ok {
		return
	}
	setContainerSelected(stored.Container(), false)
	change.Removed = append(change.Removed, stored)
}

func setContainerSelected(container Container, selected bool) {
	if container == nil {
		return
	}
	if container.IsSelected() != selected {
		container.SetSelectedCurrent(selected)
	}
}
