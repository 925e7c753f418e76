package selection

import (
	"reflect"
	"sync/atomic"
)

// Container holds the selected flag of one realized item.
type Container interface {
	IsSelected() bool
	// SetSelectedCurrent stores the flag as a current value rather than a
	// hard override, so later updates from the owner can still coerce it.
	SetSelectedCurrent(selected bool)
}

// Equaler lets items define value equality. Items that implement it are
// never indexed by hash.
type Equaler interface {
	Equal(other any) bool
}

// Separator marks structural items that can never be selected.
type Separator interface {
	IsSeparator() bool
}

type unsetItem struct{}

func (unsetItem) String() string { return "<unset>" }

// Unset is the item value meaning "no item".
var Unset any = unsetItem{}

// ItemsEqual reports whether two items are the same value.
func ItemsEqual(a, b any) bool {
	if e, ok := a.(Equaler); ok {
		return e.Equal(b)
	}
	if e, ok := b.(Equaler); ok {
		return e.Equal(a)
	}
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if reflect.TypeOf(a) != reflect.TypeOf(b) || !valueComparable(a) || !valueComparable(b) {
		return false
	}
	return a == b
}

// valueComparable checks the dynamic value, so a struct with an interface field
// holding a slice is reported as not comparable.
func valueComparable(item any) bool {
	return reflect.ValueOf(item).Comparable()
}

func hashable(item any) bool {
	if item == nil {
		return true
	}
	if _, ok := item.(Equaler); ok {
		return false
	}
	return valueComparable(item)
}

type bindingKind uint8

const (
	bindingUnbound bindingKind = iota
	bindingBound
	bindingRemoved
	bindingKey
)

func (k bindingKind) String() string {
	switch k {
	case bindingBound:
		return "bound"
	case bindingRemoved:
		return "removed"
	case bindingKey:
		return "key"
	default:
		return "unbound"
	}
}

type binding struct {
	kind      bindingKind
	container Container
	serial    uint64
}

var tombstoneSerial atomic.Uint64

// Identity is one candidate for selection: an item, the container showing
// it (if known) and its last known position in the backing collection.
type Identity struct {
	item    any
	binding binding
	index   int
}

// NewIdentity binds item to container at index. A nil container leaves
// the identity unresolved.
func NewIdentity(item any, container Container, index int) Identity {
	if index < 0 {
		index = -1
	}
	if container == nil {
		return Identity{item: item, index: index}
	}
	return Identity{
		item:    item,
		binding: binding{kind: bindingBound, container: container},
		index:   index,
	}
}

// Unresolved returns an identity that matches any realized copy of item.
func Unresolved(item any) Identity {
	return Identity{item: item, index: -1}
}

func (id Identity) Item() any {
	return id.item
}

func (id Identity) Index() int {
	return id.index
}

// Container returns the bound container, or nil when the identity is not
// bound to one.
func (id Identity) Container() Container {
	if id.binding.kind != bindingBound {
		return nil
	}
	return id.binding.container
}

// IsResolved reports whether the identity refers to one concrete slot.
// Tombstoned identities stay resolved: they still name exactly one entry.
func (id Identity) IsResolved() bool {
	return id.binding.kind == bindingBound || id.binding.kind == bindingRemoved
}

func (id Identity) IsRemoved() bool {
	return id.binding.kind == bindingRemoved
}

func (id Identity) IsKey() bool {
	return id.binding.kind == bindingKey
}

// Key returns a lookup-only copy that matches entries by item.
func (id Identity) Key() Identity {
	return Identity{item: id.item, binding: binding{kind: bindingKey}, index: -1}
}

func (id Identity) WithIndex(index int) Identity {
	if index < 0 {
		index = -1
	}
	id.index = index
	return id
}

func (id Identity) tombstone() Identity {
	return Identity{
		item:    id.item,
		binding: binding{kind: bindingRemoved, serial: tombstoneSerial.Add(1)},
		index:   id.index,
	}
}

// Equal is the exact comparison: same item and same container.
func (id Identity) Equal(other Identity) bool {
	return id.equal(other, false)
}

// Matches is the match-unresolved comparison: an unresolved identity
// matches any identity carrying the same item.
func (id Identity) Matches(other Identity) bool {
	return id.equal(other, true)
}

func (id Identity) equal(other Identity, matchUnresolved bool) bool {
	a, b := id.binding, other.binding
	if a.kind == bindingRemoved || b.kind == bindingRemoved {
		return a.kind == b.kind && a.serial == b.serial
	}
	if a.kind == bindingBound && b.kind == bindingBound {
		if a.container != b.container {
			return false
		}
		// Items that cannot be compared are identified by their container.
		return ItemsEqual(id.item, other.item) || !valueComparable(id.item) || !valueComparable(other.item)
	}
	if !ItemsEqual(id.item, other.item) {
		return false
	}
	if a.kind == bindingKey {
		return matchUnresolved || b.kind != bindingUnbound
	}
	if b.kind == bindingKey {
		return matchUnresolved || a.kind != bindingUnbound
	}
	if a.kind == bindingUnbound || b.kind == bindingUnbound {
		if matchUnresolved {
			return true
		}
		if a.kind != b.kind {
			return false
		}
		// An unknown position matches the item at any position.
		return id.index < 0 || other.index < 0 || id.index == other.index
	}
	return false
}

func (id Identity) sameSlot(other Identity) bool {
	return id.binding == other.binding && id.index == other.index && ItemsEqual(id.item, other.item)
}
