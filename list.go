package tinykernel

// Elem is an intrusive doubly-linked list node, embedded directly in the
// records that are queued (threads, locks). Grounded on the nsync package's
// dll type (other_examples nsync-waiter.go): a sentinel root node whose
// next/prev both point to itself when empty, giving O(1) removal without a
// separate container reference.
//
// A Thread's schedElem is a member of at most one List at a time — the ready
// bucket for its priority, a semaphore's waiters, or the sleep queue — never
// more than one, matching the "at most one queue" invariant in spec.md §3.1.
type Elem struct {
	next, prev *Elem
	list       *List // non-nil iff currently linked into a list

	// Owner is the record this Elem is embedded in (a *Thread or *Lock).
	// Go has no container_of; callers that need to recover the owning
	// record from an Elem (donation chain walks, waiter-list scans) use
	// this instead of pointer arithmetic.
	Owner any
}

// Linked reports whether e is currently a member of some list.
func (e *Elem) Linked() bool {
	return e.list != nil
}

// List is an intrusive doubly-linked list with a sentinel root element.
type List struct {
	root Elem
	init bool
}

func (l *List) lazyInit() {
	if !l.init {
		l.root.next = &l.root
		l.root.prev = &l.root
		l.init = true
	}
}

// Init (re)initializes l to the empty list. Required only if reusing a List
// value that previously held elements; the zero value is already empty.
func (l *List) Init() {
	l.root.next = &l.root
	l.root.prev = &l.root
	l.init = true
}

// Empty reports whether the list has no elements.
func (l *List) Empty() bool {
	l.lazyInit()
	return l.root.next == &l.root
}

// Len counts the elements in the list by walking it. Lists in this package
// are small (per-priority buckets, per-object waiter lists), so an O(n)
// count is acceptable and avoids a separate counter to keep in sync.
func (l *List) Len() int {
	l.lazyInit()
	n := 0
	for e := l.root.next; e != &l.root; e = e.next {
		n++
	}
	return n
}

// insertBetween splices e between a and b, which must be adjacent (a.next == b).
func insertBetween(e, a, b *Elem) {
	e.prev = a
	e.next = b
	a.next = e
	b.prev = e
}

// PushBack appends e to the tail of l.
func (l *List) PushBack(e *Elem) {
	l.lazyInit()
	assertf(!e.Linked(), "list: element already linked into a list")
	insertBetween(e, l.root.prev, &l.root)
	e.list = l
}

// PushFront prepends e to the head of l.
func (l *List) PushFront(e *Elem) {
	l.lazyInit()
	assertf(!e.Linked(), "list: element already linked into a list")
	insertBetween(e, &l.root, l.root.next)
	e.list = l
}

// InsertBefore inserts e immediately before mark, which must already be a
// member of l.
func (l *List) InsertBefore(e, mark *Elem) {
	assertf(!e.Linked(), "list: element already linked into a list")
	assertf(mark.list == l, "list: mark is not a member of this list")
	insertBetween(e, mark.prev, mark)
	e.list = l
}

// Remove unlinks e from whatever list it is a member of. A no-op if e is
// not currently linked.
func (l *List) Remove(e *Elem) {
	if e.list == nil {
		return
	}
	assertf(e.list == l, "list: element is not a member of this list")
	e.prev.next = e.next
	e.next.prev = e.prev
	e.next, e.prev, e.list = nil, nil, nil
}

// Front returns the first element, or nil if l is empty.
func (l *List) Front() *Elem {
	l.lazyInit()
	if l.root.next == &l.root {
		return nil
	}
	return l.root.next
}

// PopFront removes and returns the first element, or nil if l is empty.
func (l *List) PopFront() *Elem {
	e := l.Front()
	if e != nil {
		l.Remove(e)
	}
	return e
}

// Next returns the element following e within its list, or nil if e is the
// last element.
func (l *List) Next(e *Elem) *Elem {
	if e.next == &l.root {
		return nil
	}
	return e.next
}

// Do calls f for every element in l, front to back. f must not mutate l.
func (l *List) Do(f func(e *Elem)) {
	l.lazyInit()
	for e := l.root.next; e != &l.root; e = e.next {
		f(e)
	}
}

// InsertOrdered inserts e into l at the position satisfying: every element
// before e has less(e, that) == false (e does not sort before it under the
// supplied comparator). This package always calls it with less(a,b) ==
// "a sorts before b", and it inserts e immediately before the first element for which
// less(e, that) is true, preserving FIFO order among equal elements (new
// entries are inserted after existing equal ones) — this is the "ties broken
// by queue position" rule from spec.md §5.
func (l *List) InsertOrdered(e *Elem, less func(a, b *Elem) bool) {
	l.lazyInit()
	for cur := l.root.next; cur != &l.root; cur = cur.next {
		if less(e, cur) {
			l.InsertBefore(e, cur)
			return
		}
	}
	l.PushBack(e)
}

// Resort removes e and reinserts it using InsertOrdered with the same
// comparator — used when donation changes e's priority while it is already
// queued on a waiter list, per spec.md §4.2's "re-sort it on that list
// before recursing".
func (l *List) Resort(e *Elem, less func(a, b *Elem) bool) {
	l.Remove(e)
	l.InsertOrdered(e, less)
}

// SortDescending re-sorts every element of l using less, preserving relative
// order of elements considered equal by less (a simple, allocation-light
// insertion sort — these lists are expected to stay small). Used by
// Semaphore.Up and Cond.Signal, which must re-sort before picking the
// highest-priority waiter since priorities may have shifted while queued.
func (l *List) SortDescending(less func(a, b *Elem) bool) {
	l.lazyInit()
	if l.Empty() {
		return
	}
	var elems []*Elem
	l.Do(func(e *Elem) { elems = append(elems, e) })
	for _, e := range elems {
		l.Remove(e)
	}
	for _, e := range elems {
		l.InsertOrdered(e, less)
	}
}
