package selection

import "github.com/google/uuid"

// Row is the container List realizes for each slot. Two rows holding
// equal values are still distinct containers.
type Row struct {
	id       uuid.UUID
	value    any
	selected bool
}

func newRow(value any) *Row {
	return &Row{id: uuid.New(), value: value}
}

func (r *Row) ID() uuid.UUID {
	return r.id
}

func (r *Row) Value() any {
	return r.value
}

func (r *Row) IsSelected() bool {
	return r.selected
}

func (r *Row) SetSelectedCurrent(selected bool) {
	r.selected = selected
}

// List is an observable backing collection. Every mutation is reported to
// subscribers as one CollectionChange after the list has been updated.
type List struct {
	rows        []*Row
	subscribers []func(CollectionChange)
}

func NewList(items ...any) *List {
	l := &List{}
	for _, item := range items {
		l.rows = append(l.rows, newRow(item))
	}
	return l
}

func (l *List) Len() int {
	return len(l.rows)
}

func (l *List) At(index int) any {
	return l.rows[index].value
}

func (l *List) IndexOf(item any) int {
	for i, row := range l.rows {
		if ItemsEqual(row.value, item) {
			return i
		}
	}
	return -1
}

func (l *List) Contains(item any) bool {
	return l.IndexOf(item) >= 0
}

func (l *List) ContainerAt(index int) Container {
	return l.rows[index]
}

func (l *List) Row(index int) *Row {
	return l.rows[index]
}

func (l *List) Rows() []*Row {
	return append([]*Row(nil), l.rows...)
}

func (l *List) Items() []any {
	out := make([]any, len(l.rows))
	for i, row := range l.rows {
		out[i] = row.value
	}
	return out
}

// Subscribe registers fn for collection changes. Hosts usually subscribe
// with their HandleChange method.
func (l *List) Subscribe(fn func(CollectionChange)) {
	l.subscribers = append(l.subscribers, fn)
}

func (l *List) emit(ev CollectionChange) {
	for _, fn := range l.subscribers {
		fn(ev)
	}
}

func (l *List) Insert(index int, item any) error {
	if index < 0 || index > len(l.rows) {
		return ErrIndexOutOfRange
	}
	row := newRow(item)
	l.rows = append(l.rows, nil)
	copy(l.rows[index+1:], l.rows[index:])
	l.rows[index] = row
	l.emit(CollectionChange{Action: ActionAdd, Index: index, OldIndex: -1, Item: item, Container: row})
	return nil
}

func (l *List) Append(item any) {
	_ = l.Insert(len(l.rows), item)
}

func (l *List) RemoveAt(index int) error {
	if index < 0 || index >= len(l.rows) {
		return ErrIndexOutOfRange
	}
	row := l.rows[index]
	l.rows = append(l.rows[:index], l.rows[index+1:]...)
	l.emit(CollectionChange{Action: ActionRemove, Index: -1, OldIndex: index, OldItem: row.value, OldContainer: row})
	return nil
}

// Remove drops the first row holding item.
func (l *List) Remove(item any) bool {
	index := l.IndexOf(item)
	if index < 0 {
		return false
	}
	return l.RemoveAt(index) == nil
}

// Replace puts item in a fresh row at index.
func (l *List) Replace(index int, item any) error {
	if index < 0 || index >= len(l.rows) {
		return ErrIndexOutOfRange
	}
	old := l.rows[index]
	row := newRow(item)
	l.rows[index] = row
	l.emit(CollectionChange{
		Action:       ActionReplace,
		Index:        index,
		OldIndex:     index,
		Item:         item,
		OldItem:      old.value,
		Container:    row,
		OldContainer: old,
	})
	return nil
}

func (l *List) Move(from, to int) error {
	if from < 0 || from >= len(l.rows) || to < 0 || to >= len(l.rows) {
		return ErrIndexOutOfRange
	}
	if from == to {
		return nil
	}
	row := l.rows[from]
	l.rows = append(l.rows[:from], l.rows[from+1:]...)
	l.rows = append(l.rows, nil)
	copy(l.rows[to+1:], l.rows[to:])
	l.rows[to] = row
	l.emit(CollectionChange{Action: ActionMove, Index: to, OldIndex: from, Item: row.value, Container: row})
	return nil
}

// Reset replaces the whole content with fresh rows. A subscribed host
// rebinds surviving selections to the new rows.
func (l *List) Reset(items []any) {
	l.rows = l.rows[:0:0]
	for _, item := range items {
		l.rows = append(l.rows, newRow(item))
	}
	l.emit(CollectionChange{Action: ActionReset, Index: -1, OldIndex: -1})
}
