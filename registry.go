package tinykernel

import "sync"

// registry is the scheduler's all-threads table and TID allocator.
// Grounded on thread.c's all_list + tid_lock, and on the teacher's
// registry.go pattern of a single struct owning a table plus its own mutex
// distinct from the loop's main state.
//
// The TID allocator is guarded by its own mutex rather than the scheduler's
// main mutex because, per spec.md §5, "the TID allocator is guarded by its
// own lock because the allocation path itself can be preempted" — tid
// allocation must remain safe even if called from a context that does not
// hold the scheduler's interrupts-disabled section.
type registry struct {
	tidMu   sync.Mutex
	nextTID int64

	all List // membership: Thread.allElem
}

func (r *registry) allocateTID() int64 {
	r.tidMu.Lock()
	defer r.tidMu.Unlock()
	r.nextTID++
	return r.nextTID
}

// add registers t in the all-threads table. Must be called with the
// scheduler's interrupts disabled.
func (r *registry) add(t *Thread) {
	r.all.PushBack(&t.allElem)
}

// remove unregisters t. Must be called with the scheduler's interrupts
// disabled.
func (r *registry) remove(t *Thread) {
	r.all.Remove(&t.allElem)
}

// foreach applies f to every registered thread, in registration order. Must
// be called with the scheduler's interrupts disabled (mirrors
// thread_foreach's ASSERT(intr_get_level() == INTR_OFF)).
func (r *registry) foreach(f func(t *Thread)) {
	r.all.Do(func(e *Elem) {
		f(threadOf(e))
	})
}

// PageAllocator is the external collaborator described in spec.md §6: it
// supplies and reclaims the backing storage for a thread's control block.
// In the original kernel this is a literal physical page; here, since Go's
// garbage collector already owns thread-control-block lifetime, the default
// implementation is a thin wrapper over ordinary allocation. The interface
// is kept so a caller embedding this scheduler in a larger simulation (e.g.
// one that wants to model and exhaust a bounded pool of thread slots, as
// ErrNoPage allows for) can substitute their own bookkeeping.
type PageAllocator interface {
	// AllocThread returns a new, zeroed Thread control block, or nil if no
	// backing storage is available (surfaced to the caller as ErrNoPage).
	AllocThread() *Thread
	// FreeThread reclaims t's backing storage. Called once, after t has
	// fully exited and a replacement thread has been scheduled in its
	// place (mirroring "destruction is deferred until the NEXT thread has
	// taken over", §3.1).
	FreeThread(t *Thread)
}

// defaultPageAllocator is an unbounded GC-backed PageAllocator: AllocThread
// never fails, FreeThread is a no-op (the GC reclaims the Thread once
// nothing references it any longer).
type defaultPageAllocator struct{}

func (defaultPageAllocator) AllocThread() *Thread { return &Thread{} }
func (defaultPageAllocator) FreeThread(*Thread)   {}
