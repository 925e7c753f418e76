package selection

import (
	"fmt"

	"listsel/internal/logging"
)

// Options configures a Host.
type Options struct {
	// Multiple enables multi-selection.
	Multiple bool
	// Selectable decides whether an item may be selected. Defaults to
	// DefaultSelectable.
	Selectable func(item any) bool
	// ValuePath projects SelectedValue from the selected item, e.g.
	// "Meta.ID". Empty means the item itself.
	ValuePath string
	// ValueFunc overrides ValuePath when set.
	ValueFunc func(item any) (any, bool)
	// ReselectStale selects containers that still report selected after a
	// reset instead of clearing their flag.
	ReselectStale bool
	Logger        logging.Logger
	Observer      Observer
}

// DefaultSelectable rejects separators and the Unset sentinel.
func DefaultSelectable(item any) bool {
	if sep, ok := item.(Separator); ok && sep.IsSeparator() {
		return false
	}
	return true
}

type subscriber struct {
	id int
	fn func(Change)
}

// Host owns the authoritative selection for one item collection. It turns
// collection changes and public property writes into batches and publishes
// one Change per committed batch.
//
// A Host is not safe for concurrent use; all calls must come from the
// goroutine that owns the collection.
type Host struct {
	items         Collection
	selected      *Set
	batch         *Batch
	view          *SelectedItems
	multiple      bool
	selectable    func(any) bool
	valuePath     string
	valueFunc     func(any) (any, bool)
	reselectStale bool
	logger        logging.Logger
	observer      Observer

	subscribers    []subscriber
	nextSubscriber int

	selectionActive bool
	pendingValue    any
	waitsForItems   bool

	cacheValid  bool
	cachedIndex int
	commits     uint64
}

func NewHost(items Collection, opts Options) *Host {
	h := &Host{
		items:         items,
		selected:      NewSet(true),
		multiple:      opts.Multiple,
		selectable:    opts.Selectable,
		valuePath:     opts.ValuePath,
		valueFunc:     opts.ValueFunc,
		reselectStale: opts.ReselectStale,
		logger:        opts.Logger,
		observer:      opts.Observer,
	}
	if h.selectable == nil {
		h.selectable = DefaultSelectable
	}
	if h.logger == nil {
		h.logger = logging.Nop()
	}
	if h.observer == nil {
		h.observer = nopObserver{}
	}
	h.view = &SelectedItems{host: h}
	if items.Len() > 0 {
		h.checkCollectionHashable()
		h.onReset()
	}
	return h
}

// Batch returns the host's batch, creating it on first use.
func (h *Host) Batch() *Batch {
	if h.batch == nil {
		h.batch = newBatch(h)
	}
	return h.batch
}

func (h *Host) batchActive() bool {
	return h.batch != nil && h.batch.active
}

func (h *Host) Items() Collection {
	return h.items
}

// Selected returns the committed selection in selection order.
func (h *Host) Selected() []Identity {
	return h.selected.Items()
}

func (h *Host) SelectedCount() int {
	return h.selected.Len()
}

func (h *Host) IsSelected(index int) bool {
	if index < 0 || index >= h.items.Len() {
		return false
	}
	return h.selected.containsExact(h.identityAt(index))
}

func (h *Host) Multiple() bool {
	return h.multiple
}

// SetMultiple switches selection mode. Leaving multi-selection keeps only
// the first selected entry.
func (h *Host) SetMultiple(multiple bool) Change {
	if h.multiple == multiple {
		return Change{}
	}
	h.multiple = multiple
	if multiple {
		return Change{}
	}
	return h.inBatch(func(*Batch) {})
}

func (h *Host) IsSelectionActive() bool {
	return h.selectionActive
}

func (h *Host) SetSelectionActive(active bool) {
	h.selectionActive = active
}

// Subscribe registers fn for change notifications and returns a func that
// removes it.
func (h *Host) Subscribe(fn func(Change)) (unsubscribe func()) {
	h.nextSubscriber++
	id := h.nextSubscriber
	h.subscribers = append(h.subscribers, subscriber{id: id, fn: fn})
	return func() {
		for i, s := range h.subscribers {
			if s.id == id {
				h.subscribers = append(h.subscribers[:i], h.subscribers[i+1:]...)
				return
			}
		}
	}
}

func (h *Host) SelectedIndex() int {
	if h.cacheValid {
		return h.cachedIndex
	}
	index := -1
	if h.selected.Len() > 0 {
		first := h.selected.At(0)
		index = first.Index()
		if index < 0 || index >= h.items.Len() || !ItemsEqual(h.items.At(index), first.Item()) {
			index = h.items.IndexOf(first.Item())
		}
	}
	h.cachedIndex = index
	h.cacheValid = true
	return index
}

// SetSelectedIndex selects only the item at index; a negative index clears
// the selection.
func (h *Host) SetSelectedIndex(index int) (Change, error) {
	if index < 0 {
		return h.Batch().SelectJustThisItem(Unresolved(Unset), true), nil
	}
	if index >= h.items.Len() {
		return Change{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	return h.Batch().SelectJustThisItem(h.identityAt(index), true), nil
}

func (h *Host) SelectedItem() (any, bool) {
	if h.selected.Len() == 0 {
		return nil, false
	}
	return h.selected.At(0).Item(), true
}

// SetSelectedItem selects only item. Items not in the collection yet are
// selected once they arrive. A nil item clears the selection.
func (h *Host) SetSelectedItem(item any) Change {
	if item == nil || ItemsEqual(item, Unset) {
		return h.Batch().SelectJustThisItem(Unresolved(Unset), true)
	}
	return h.Batch().SelectJustThisItem(h.identify(item), false)
}

func (h *Host) SelectedValuePath() string {
	return h.valuePath
}

func (h *Host) SetSelectedValuePath(path string) {
	h.valuePath = path
}

func (h *Host) SelectedValue() (any, bool) {
	item, ok := h.SelectedItem()
	if !ok {
		return nil, false
	}
	return h.project(item)
}

// SetSelectedValue selects the first item whose projected value equals
// value. With an empty collection the request waits for items and is
// retried once when the first items arrive.
func (h *Host) SetSelectedValue(value any) Change {
	if value != nil && h.items.Len() == 0 {
		h.pendingValue = value
		h.waitsForItems = true
		return Change{}
	}
	h.pendingValue = nil
	h.waitsForItems = false
	return h.selectValue(value)
}

func (h *Host) selectValue(value any) Change {
	if value != nil {
		for i := 0; i < h.items.Len(); i++ {
			projected, ok := h.project(h.items.At(i))
			if ok && ItemsEqual(projected, value) {
				return h.Batch().SelectJustThisItem(h.identityAt(i), true)
			}
		}
	}
	return h.Batch().SelectJustThisItem(Unresolved(Unset), true)
}

func (h *Host) retryPendingValue() {
	if !h.waitsForItems || h.items.Len() == 0 || h.batchActive() {
		return
	}
	value := h.pendingValue
	h.pendingValue = nil
	h.waitsForItems = false
	h.selectValue(value)
}

// WaitsForItems reports whether a SetSelectedValue call is parked until
// the collection has items.
func (h *Host) WaitsForItems() bool {
	return h.waitsForItems
}

func (h *Host) project(item any) (any, bool) {
	if h.valueFunc != nil {
		return h.valueFunc(item)
	}
	return projectValue(item, h.valuePath)
}

func (h *Host) SelectedItems() *SelectedItems {
	return h.view
}

// SetSelectedItems replaces the whole selection with items. Either every
// item is applied or, when one cannot be selected, nothing changes.
func (h *Host) SetSelectedItems(items []any) (Change, error) {
	if !h.multiple {
		return Change{}, ErrSingleSelection
	}
	b := h.Batch()
	b.Begin()
	for _, item := range items {
		if !h.isSelectable(item) {
			b.Cancel()
			return Change{}, fmt.Errorf("%w: %v", ErrNotSelectable, item)
		}
		if !h.contains(item) {
			b.Cancel()
			return Change{}, fmt.Errorf("%w: %v", ErrNotInCollection, item)
		}
	}
	remaining := append([]any(nil), items...)
	for _, stored := range h.selected.Items() {
		kept := false
		for i, item := range remaining {
			if ItemsEqual(item, stored.Item()) {
				remaining = append(remaining[:i], remaining[i+1:]...)
				kept = true
				break
			}
		}
		if !kept {
			b.Unselect(stored)
		}
	}
	for _, item := range remaining {
		b.Select(Unresolved(item), true)
	}
	return b.End(), nil
}

func (h *Host) SelectAll() (Change, error) {
	if !h.multiple {
		return Change{}, ErrSingleSelection
	}
	return h.inBatch(func(b *Batch) {
		for i := 0; i < h.items.Len(); i++ {
			b.Select(h.identityAt(i), true)
		}
	}), nil
}

// UnselectAll clears the selection and any deferred requests.
func (h *Host) UnselectAll() Change {
	h.Batch().ClearDeferred()
	return h.inBatch(func(b *Batch) {
		for _, stored := range h.selected.Items() {
			b.Unselect(stored)
		}
	})
}

// Toggle flips the selection of the item at index. In single-selection
// mode selecting an item replaces the current selection.
func (h *Host) Toggle(index int) (Change, error) {
	if index < 0 || index >= h.items.Len() {
		return Change{}, fmt.Errorf("%w: %d", ErrIndexOutOfRange, index)
	}
	id := h.identityAt(index)
	if h.selected.containsExact(id) {
		return h.inBatch(func(b *Batch) { b.Unselect(id) }), nil
	}
	if !h.multiple {
		return h.Batch().SelectJustThisItem(id, true), nil
	}
	return h.inBatch(func(b *Batch) { b.Select(id, true) }), nil
}

// ContainerSelectionChanged reconciles a container whose selected flag
// was changed from the outside. Flags written by the engine itself while
// a batch is running are ignored.
func (h *Host) ContainerSelectionChanged(index int) (Change, bool) {
	if h.batchActive() || index < 0 || index >= h.items.Len() {
		return Change{}, false
	}
	container := h.items.ContainerAt(index)
	if container == nil {
		return Change{}, false
	}
	id := h.identityAt(index)
	if !container.IsSelected() {
		return h.inBatch(func(b *Batch) { b.Unselect(id) }), true
	}
	if !h.isSelectable(id.Item()) {
		container.SetSelectedCurrent(false)
		return Change{}, true
	}
	if !h.multiple {
		return h.Batch().SelectJustThisItem(id, true), true
	}
	return h.inBatch(func(b *Batch) { b.Select(id, true) }), true
}

// HandleChange reconciles the selection with one structural change of the
// collection.
func (h *Host) HandleChange(ev CollectionChange) {
	switch ev.Action {
	case ActionAdd:
		h.checkItemsHashable(ev.Item)
		h.onAdd(ev)
	case ActionRemove:
		h.onRemove(ev)
	case ActionReplace:
		h.checkItemsHashable(ev.Item)
		h.onReplace(ev)
	case ActionMove:
		h.onMove(ev)
	case ActionReset:
		h.checkCollectionHashable()
		h.onReset()
	}
	h.cacheValid = false
	h.retryPendingValue()
}

func (h *Host) onAdd(ev CollectionChange) {
	at := ev.Index
	h.inBatch(func(b *Batch) {
		if at < 0 {
			h.selected.remapIndices(func(int) int { return -1 })
		} else {
			h.selected.remapIndices(func(i int) int {
				if i >= at {
					return i + 1
				}
				return i
			})
		}
		container := ev.Container
		if container == nil && at >= 0 && at < h.items.Len() {
			container = h.items.ContainerAt(at)
		}
		if container == nil || !container.IsSelected() {
			return
		}
		if !h.isSelectable(ev.Item) {
			container.SetSelectedCurrent(false)
			return
		}
		b.Select(NewIdentity(ev.Item, container, at), true)
	})
}

func (h *Host) onRemove(ev CollectionChange) {
	at := ev.OldIndex
	h.inBatch(func(b *Batch) {
		h.unselectRemoved(b, ev.OldItem, ev.OldContainer, at)
		if at < 0 {
			h.selected.remapIndices(func(int) int { return -1 })
			return
		}
		h.selected.remapIndices(func(i int) int {
			switch {
			case i == at:
				return -1
			case i > at:
				return i - 1
			}
			return i
		})
	})
}

func (h *Host) onReplace(ev CollectionChange) {
	at := ev.Index
	h.inBatch(func(b *Batch) {
		h.unselectRemoved(b, ev.OldItem, ev.OldContainer, at)
		container := ev.Container
		if container == nil && at >= 0 && at < h.items.Len() {
			container = h.items.ContainerAt(at)
		}
		if container != nil && container.IsSelected() {
			b.Select(NewIdentity(ev.Item, container, at), true)
		}
	})
}

// unselectRemoved queues the entry for an item that left the collection.
// Entries without a container are matched by position and tombstoned, so
// index shifts later in the batch cannot make them match another slot.
func (h *Host) unselectRemoved(b *Batch, item any, container Container, at int) {
	if container != nil {
		b.Unselect(NewIdentity(item, container, at))
		return
	}
	if at < 0 {
		b.Unselect(Unresolved(item))
		return
	}
	selected := h.selected.Items()
	pos := positionOf(selected, item, func(index int) bool { return index == at })
	if pos < 0 {
		// The entry lost its position to an earlier unknown-index event.
		pos = positionOf(selected, item, func(index int) bool { return index < 0 })
	}
	if pos < 0 {
		return
	}
	if stored := selected[pos]; stored.Container() != nil {
		b.Unselect(stored)
		return
	}
	b.Unselect(h.selected.tombstoneAt(pos))
}

func positionOf(selected []Identity, item any, at func(index int) bool) int {
	for pos, stored := range selected {
		if at(stored.Index()) && ItemsEqual(stored.Item(), item) {
			return pos
		}
	}
	return -1
}

func (h *Host) onMove(ev CollectionChange) {
	from, to := ev.OldIndex, ev.Index
	h.inBatch(func(*Batch) {
		if from < 0 || to < 0 {
			h.selected.remapIndices(func(int) int { return -1 })
			return
		}
		h.selected.remapIndices(func(i int) int {
			switch {
			case i == from:
				return to
			case from < to && i > from && i <= to:
				return i - 1
			case from > to && i >= to && i < from:
				return i + 1
			}
			return i
		})
	})
}

// onReset relocates every selected entry in one pass over the collection.
// Survivors keep their place in selection order and are rebound to their
// new slot; entries with no remaining slot are tombstoned and unselected.
func (h *Host) onReset() {
	h.inBatch(func(b *Batch) {
		selected := h.selected.Items()
		located := make([]bool, len(selected))
		remaining := len(selected)
		var byItem map[any][]int
		if h.selected.UsesItemHashCodes() && remaining > 0 {
			byItem = make(map[any][]int, len(selected))
			for pos, id := range selected {
				byItem[id.Item()] = append(byItem[id.Item()], pos)
			}
		}

		for i := 0; i < h.items.Len(); i++ {
			item := h.items.At(i)
			container := h.items.ContainerAt(i)
			if remaining > 0 {
				var candidates []int
				if byItem != nil {
					candidates = byItem[item]
				}
				pos := relocate(selected, located, candidates, byItem != nil, item, container)
				if pos >= 0 {
					located[pos] = true
					remaining--
					h.selected.rebind(pos, NewIdentity(item, container, i))
					setContainerSelected(container, true)
					continue
				}
			}
			if container == nil || !container.IsSelected() {
				continue
			}
			if h.reselectStale && h.isSelectable(item) {
				b.Select(NewIdentity(item, container, i), true)
			} else {
				container.SetSelectedCurrent(false)
			}
		}

		for pos := range selected {
			if !located[pos] {
				b.Unselect(h.selected.tombstoneAt(pos))
			}
		}
	})
}

// relocate picks the unlocated entry for item, preferring one that was
// already bound to container.
func relocate(selected []Identity, located []bool, candidates []int, indexed bool, item any, container Container) int {
	first := -1
	consider := func(pos int) bool {
		if located[pos] || !ItemsEqual(selected[pos].Item(), item) {
			return false
		}
		if container != nil && selected[pos].Container() == container {
			first = pos
			return true
		}
		if first < 0 {
			first = pos
		}
		return false
	}
	if indexed {
		for _, pos := range candidates {
			if consider(pos) {
				break
			}
		}
		return first
	}
	for pos := range selected {
		if consider(pos) {
			break
		}
	}
	return first
}

func (h *Host) inBatch(fn func(b *Batch)) Change {
	b := h.Batch()
	b.Begin()
	defer func() {
		if b.active {
			b.cleanup()
		}
	}()
	fn(b)
	return b.End()
}

func (h *Host) isSelectable(item any) bool {
	if ItemsEqual(item, Unset) {
		return false
	}
	return h.selectable(item)
}

func (h *Host) contains(item any) bool {
	return h.items.IndexOf(item) >= 0
}

func (h *Host) identityAt(index int) Identity {
	return NewIdentity(h.items.At(index), h.items.ContainerAt(index), index)
}

// identify resolves item to the selected entry carrying it, else to its
// first slot in the collection, else leaves it unresolved.
func (h *Host) identify(item any) Identity {
	if stored, ok := h.selected.FindMatch(Unresolved(item)); ok {
		return stored
	}
	if index := h.items.IndexOf(item); index >= 0 {
		return h.identityAt(index)
	}
	return Unresolved(item)
}

// holdsAt reports whether an unbound identity still names the item at its
// recorded position.
func (h *Host) holdsAt(id Identity) bool {
	index := id.Index()
	return index >= 0 && index < h.items.Len() && ItemsEqual(h.items.At(index), id.Item())
}

// locate refreshes the index of a bound identity from its container.
func (h *Host) locate(id Identity) Identity {
	container := id.Container()
	if container == nil {
		return id
	}
	index := id.Index()
	if index >= 0 && index < h.items.Len() && h.items.ContainerAt(index) == container {
		return id
	}
	for i := 0; i < h.items.Len(); i++ {
		if h.items.ContainerAt(i) == container {
			return id.WithIndex(i)
		}
	}
	return id
}

func (h *Host) checkItemsHashable(items ...any) {
	if !h.selected.UsesItemHashCodes() {
		return
	}
	for _, item := range items {
		if !hashable(item) {
			h.disableItemHashing(item)
			return
		}
	}
}

func (h *Host) checkCollectionHashable() {
	if !h.selected.UsesItemHashCodes() {
		return
	}
	for i := 0; i < h.items.Len(); i++ {
		if item := h.items.At(i); !hashable(item) {
			h.disableItemHashing(item)
			return
		}
	}
}

func (h *Host) disableItemHashing(item any) {
	h.selected.SetUsesItemHashCodes(false)
	if h.batch != nil {
		h.batch.setUsesItemHashCodes(false)
	}
	h.logger.Info("selection hashing disabled", logging.F("item_type", fmt.Sprintf("%T", item)))
}

func (h *Host) updatePublicSelectionProperties() {
	h.cacheValid = false
}

func (h *Host) committed(change Change) {
	h.commits++
	h.observer.BatchCommitted(change, h.selected.Len())
	if change.Empty() {
		return
	}
	if h.logger.Enabled(logging.Debug) {
		h.logger.Debug("selection committed",
			logging.F("batch", h.commits),
			logging.F("added", len(change.Added)),
			logging.F("removed", len(change.Removed)),
			logging.F("selected_count", h.selected.Len()),
		)
	}
	subscribers := append([]subscriber(nil), h.subscribers...)
	for _, s := range subscribers {
		s.fn(change)
	}
}

func (h *Host) contractViolation(reason string) {
	h.logger.Error("selection contract violation", logging.F("reason", reason))
	panic("selection: " + reason)
}
