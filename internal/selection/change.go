package selection

import "errors"

var (
	ErrSingleSelection = errors.New("selection: operation requires multiple selection")
	ErrNotSelectable   = errors.New("selection: item is not selectable")
	ErrNotInCollection = errors.New("selection: item is not in the collection")
	ErrIndexOutOfRange = errors.New("selection: index out of range")
)

// Change is the single notification published by a committed batch.
// Both lists are in commit order.
type Change struct {
	Added   []Identity
	Removed []Identity
}

func (c Change) Empty() bool {
	return len(c.Added) == 0 && len(c.Removed) == 0
}

func (c Change) AddedItems() []any {
	return identityItems(c.Added)
}

func (c Change) RemovedItems() []any {
	return identityItems(c.Removed)
}

func identityItems(ids []Identity) []any {
	if len(ids) == 0 {
		return nil
	}
	out := make([]any, len(ids))
	for i, id := range ids {
		out[i] = id.Item()
	}
	return out
}

type ChangeAction uint8

const (
	ActionAdd ChangeAction = iota
	ActionRemove
	ActionReplace
	ActionMove
	ActionReset
)

func (a ChangeAction) String() string {
	switch a {
	case ActionAdd:
		return "add"
	case ActionRemove:
		return "remove"
	case ActionReplace:
		return "replace"
	case ActionMove:
		return "move"
	case ActionReset:
		return "reset"
	default:
		return "unknown"
	}
}

// CollectionChange describes one structural mutation of the backing
// collection.
//
//   - Add: Item/Container inserted at Index.
//   - Remove: OldItem/OldContainer removed from OldIndex (-1 if unknown).
//   - Replace: OldItem/OldContainer at Index replaced by Item/Container.
//   - Move: Item moved from OldIndex to Index.
//   - Reset: everything may have changed.
type CollectionChange struct {
	Action       ChangeAction
	Index        int
	OldIndex     int
	Item         any
	OldItem      any
	Container    Container
	OldContainer Container
}

// Collection is the ordered item source a Host selects from.
type Collection interface {
	Len() int
	At(index int) any
	IndexOf(item any) int
	// ContainerAt returns the container realized for index, or nil.
	ContainerAt(index int) Container
}

// Observer receives engine events. Implementations must not start a new
// batch from inside a callback.
type Observer interface {
	BatchCommitted(change Change, selectedCount int)
	BatchCancelled()
	SelectionDeferred(item any)
	DeferredPromoted(item any)
}

type nopObserver struct{}

func (nopObserver) BatchCommitted(Change, int) {}

func (nopObserver) BatchCancelled() {}

func (nopObserver) SelectionDeferred(any) {}

func (nopObserver) DeferredPromoted(any) {}
