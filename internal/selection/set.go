package selection

type slot struct {
	id      Identity
	dropped bool
}

// lookup is the search strategy behind a Set. The hash strategy buckets
// slots by item; the linear strategy scans the slot list.
type lookup interface {
	add(s *slot)
	remove(s *slot)
	find(id Identity, eq func(stored, query Identity) bool, last bool) *slot
	rebuild(slots []*slot)
}

type hashLookup struct {
	buckets map[any][]*slot
}

func newHashLookup(slots []*slot) *hashLookup {
	l := &hashLookup{}
	l.rebuild(slots)
	return l
}

func (l *hashLookup) add(s *slot) {
	key := s.id.item
	l.buckets[key] = append(l.buckets[key], s)
}

func (l *hashLookup) remove(s *slot) {
	key := s.id.item
	bucket := l.buckets[key]
	for i := len(bucket) - 1; i >= 0; i-- {
		if bucket[i] != s {
			continue
		}
		bucket = append(bucket[:i], bucket[i+1:]...)
		break
	}
	if len(bucket) == 0 {
		delete(l.buckets, key)
		return
	}
	l.buckets[key] = bucket
}

func (l *hashLookup) find(id Identity, eq func(stored, query Identity) bool, last bool) *slot {
	bucket := l.buckets[id.item]
	if last {
		for i := len(bucket) - 1; i >= 0; i-- {
			if eq(bucket[i].id, id) {
				return bucket[i]
			}
		}
		return nil
	}
	for _, s := range bucket {
		if eq(s.id, id) {
			return s
		}
	}
	return nil
}

func (l *hashLookup) rebuild(slots []*slot) {
	l.buckets = make(map[any][]*slot, len(slots))
	for _, s := range slots {
		if !s.dropped {
			l.add(s)
		}
	}
}

type linearLookup struct {
	set *Set
}

func (linearLookup) add(*slot) {}

func (linearLookup) remove(*slot) {}

func (linearLookup) rebuild([]*slot) {}

func (l linearLookup) find(id Identity, eq func(stored, query Identity) bool, last bool) *slot {
	slots := l.set.slots
	if last {
		for i := len(slots) - 1; i >= 0; i-- {
			if !slots[i].dropped && eq(slots[i].id, id) {
				return slots[i]
			}
		}
		return nil
	}
	for _, s := range slots {
		if !s.dropped && eq(s.id, id) {
			return s
		}
	}
	return nil
}

// Set is an ordered collection of identities. Insertion order is
// selection order; the first entry is the single-selection value.
//
// The authoritative set compares exactly. Pending queues compare with
// match-unresolved semantics so an unresolved request finds its realized
// counterpart.
type Set struct {
	slots           []*slot
	lookup          lookup
	hashed          bool
	matchUnresolved bool
	resolved        int
	unresolved      int
	deferDepth      int
	dropped         int
}

// NewSet returns an exact-compare set.
func NewSet(usesItemHashCodes bool) *Set {
	return newSet(usesItemHashCodes, false)
}

func newPendingSet(usesItemHashCodes bool) *Set {
	return newSet(usesItemHashCodes, true)
}

func newSet(usesItemHashCodes, matchUnresolved bool) *Set {
	s := &Set{matchUnresolved: matchUnresolved}
	s.SetUsesItemHashCodes(usesItemHashCodes)
	return s
}

func (s *Set) eq(stored, query Identity) bool {
	if s.matchUnresolved {
		return stored.Matches(query)
	}
	return stored.Equal(query)
}

func exactEq(stored, query Identity) bool {
	return stored.Equal(query)
}

func matchEq(stored, query Identity) bool {
	return stored.Matches(query)
}

func (s *Set) UsesItemHashCodes() bool {
	return s.hashed
}

// SetUsesItemHashCodes switches the lookup strategy. The whole set moves
// to the new strategy at once.
func (s *Set) SetUsesItemHashCodes(enabled bool) {
	if enabled && s.lookup != nil && s.hashed {
		return
	}
	if enabled {
		for _, sl := range s.slots {
			if !sl.dropped && !hashable(sl.id.item) {
				enabled = false
				break
			}
		}
	}
	s.hashed = enabled
	if enabled {
		s.lookup = newHashLookup(s.slots)
		return
	}
	s.lookup = linearLookup{set: s}
}

func (s *Set) Len() int {
	return len(s.slots) - s.dropped
}

func (s *Set) ResolvedCount() int {
	return s.resolved
}

func (s *Set) UnresolvedCount() int {
	return s.unresolved
}

// At returns the identity at logical position i.
func (s *Set) At(i int) Identity {
	return s.slots[s.physical(i)].id
}

func (s *Set) physical(i int) int {
	if s.dropped == 0 {
		return i
	}
	for p, sl := range s.slots {
		if sl.dropped {
			continue
		}
		if i == 0 {
			return p
		}
		i--
	}
	return len(s.slots)
}

// Items returns a snapshot of the live identities in order.
func (s *Set) Items() []Identity {
	out := make([]Identity, 0, s.Len())
	for _, sl := range s.slots {
		if !sl.dropped {
			out = append(out, sl.id)
		}
	}
	return out
}

// Add appends id without checking for duplicates.
func (s *Set) Add(id Identity) {
	if s.hashed && !hashable(id.item) {
		s.SetUsesItemHashCodes(false)
	}
	sl := &slot{id: id}
	s.slots = append(s.slots, sl)
	s.lookup.add(sl)
	s.count(id, 1)
}

func (s *Set) count(id Identity, delta int) {
	if id.IsResolved() {
		s.resolved += delta
		return
	}
	s.unresolved += delta
}

// Remove removes the last entry equal to id under the set's comparer.
func (s *Set) Remove(id Identity) bool {
	_, ok := s.remove(id, s.eq)
	return ok
}

func (s *Set) removeExact(id Identity) bool {
	_, ok := s.remove(id, exactEq)
	return ok
}

func (s *Set) remove(id Identity, eq func(stored, query Identity) bool) (Identity, bool) {
	if !s.lookupable(id) {
		return Identity{}, false
	}
	sl := s.lookup.find(id, eq, true)
	if sl == nil {
		return Identity{}, false
	}
	stored := sl.id
	s.lookup.remove(sl)
	s.count(stored, -1)
	if s.deferDepth > 0 {
		sl.id = stored.tombstone()
		sl.dropped = true
		s.dropped++
		return stored, true
	}
	for p := len(s.slots) - 1; p >= 0; p-- {
		if s.slots[p] == sl {
			s.slots = append(s.slots[:p], s.slots[p+1:]...)
			break
		}
	}
	return stored, true
}

func (s *Set) lookupable(id Identity) bool {
	return !s.hashed || hashable(id.item)
}

// Contains reports whether an entry equals id under the set's comparer.
func (s *Set) Contains(id Identity) bool {
	return s.find(id, s.eq) != nil
}

func (s *Set) containsExact(id Identity) bool {
	return s.find(id, exactEq) != nil
}

func (s *Set) find(id Identity, eq func(stored, query Identity) bool) *slot {
	if !s.lookupable(id) {
		return nil
	}
	return s.lookup.find(id, eq, false)
}

// FindMatch returns the stored entry for id: an exact match when one
// exists, otherwise the first entry carrying the same item.
func (s *Set) FindMatch(id Identity) (Identity, bool) {
	if id.IsResolved() || id.Index() >= 0 {
		if sl := s.find(id, exactEq); sl != nil {
			return sl.id, true
		}
	}
	if sl := s.find(id.Key(), matchEq); sl != nil {
		return sl.id, true
	}
	return Identity{}, false
}

// DeferRemove opens a scope in which removals only mark entries. The
// returned release func compacts the list in one pass when the outermost
// scope closes. Scopes nest.
func (s *Set) DeferRemove() (release func()) {
	s.deferDepth++
	released := false
	return func() {
		if released {
			return
		}
		released = true
		s.deferDepth--
		if s.deferDepth == 0 && s.dropped > 0 {
			s.compact()
		}
	}
}

func (s *Set) compact() {
	kept := s.slots[:0]
	for _, sl := range s.slots {
		if !sl.dropped {
			kept = append(kept, sl)
		}
	}
	for i := len(kept); i < len(s.slots); i++ {
		s.slots[i] = nil
	}
	s.slots = kept
	s.dropped = 0
}

func (s *Set) Clear() {
	s.slots = nil
	s.resolved = 0
	s.unresolved = 0
	s.dropped = 0
	s.lookup.rebuild(nil)
}

func (s *Set) positionOf(id Identity, eq func(stored, query Identity) bool) int {
	pos := 0
	for _, sl := range s.slots {
		if sl.dropped {
			continue
		}
		if eq(sl.id, id) {
			return pos
		}
		pos++
	}
	return -1
}

// rebind replaces the entry at logical position i in place, keeping its
// place in selection order.
func (s *Set) rebind(i int, id Identity) {
	sl := s.slots[s.physical(i)]
	s.lookup.remove(sl)
	s.count(sl.id, -1)
	if s.hashed && !hashable(id.item) {
		sl.id = id
		s.SetUsesItemHashCodes(false)
	} else {
		sl.id = id
		s.lookup.add(sl)
	}
	s.count(id, 1)
}

// tombstoneAt marks the entry at logical position i as removed and
// returns the tombstone, which only a copy of itself will ever equal.
func (s *Set) tombstoneAt(i int) Identity {
	t := s.At(i).tombstone()
	s.rebind(i, t)
	return t
}

// move reorders logical positions without changing membership.
func (s *Set) move(from, to int) {
	if from == to {
		return
	}
	if s.dropped > 0 {
		s.compact()
	}
	sl := s.slots[from]
	s.slots = append(s.slots[:from], s.slots[from+1:]...)
	s.slots = append(s.slots, nil)
	copy(s.slots[to+1:], s.slots[to:])
	s.slots[to] = sl
}

// remapIndices rewrites every known index through fn. Entries whose
// index maps below zero become position-unknown.
func (s *Set) remapIndices(fn func(int) int) {
	for _, sl := range s.slots {
		if sl.dropped || sl.id.index < 0 {
			continue
		}
		sl.id = sl.id.WithIndex(fn(sl.id.index))
	}
}
