package tinykernel

// Semaphore is a counting semaphore whose waiter list doubles as the entry
// point into the donation engine (§3.4, §4.4). Grounded on struct semaphore
// in the original thread.c: holder lives on the semaphore itself, not only on
// Lock, so that a bare semaphore used without a holder never participates in
// donation (see SPEC_FULL.md §3 "Semaphore-level holder").
type Semaphore struct {
	sched *Scheduler

	value   int
	waiters List

	// holder is nil for a bare semaphore. Lock.Acquire sets it to the
	// acquiring thread once acquired; donate/update_donation only walk
	// through a semaphore whose holder is non-nil.
	holder *Thread
}

// newSemaphoreLocked constructs a Semaphore with the given initial value.
// Must be called with s.mu held (it does no locking of its own and is used
// both by NewSemaphore and by Lock/Cond internals that already hold mu).
func newSemaphoreLocked(s *Scheduler, value int) *Semaphore {
	assertf(value >= 0, "semaphore: initial value must be non-negative")
	sem := &Semaphore{sched: s, value: value}
	sem.waiters.Init()
	return sem
}

// NewSemaphore constructs a standalone counting semaphore with the given
// initial value (§4.4 init). A semaphore created this way never acquires a
// holder and so never participates in priority donation.
func (s *Scheduler) NewSemaphore(value int) *Semaphore {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newSemaphoreLocked(s, value)
}

// Down is P(sem): blocks the calling thread until value > 0, then
// decrements it (§4.4). While blocked, the calling thread is enqueued on
// sem.waiters in effective-priority order so the highest-priority waiter is
// always at the front for Up to find.
func (sem *Semaphore) Down() {
	s := sem.sched
	s.mu.Lock()
	for sem.value == 0 {
		cur := s.current
		cur.waitingOn = sem
		sem.waiters.InsertOrdered(&cur.schedElem, s.byEffectivePriorityDesc)
		if sem.holder != nil && !s.opts.mlfqs {
			s.updateDonationLocked(cur)
		}
		s.blockLocked()
		// Resumed: we were popped off sem.waiters by Up, waitingOn already
		// cleared there.
	}
	sem.value--
	s.mu.Unlock()
}

// TryDown is the non-blocking variant of Down: it decrements value and
// returns true only if value was already positive (§4.4).
func (sem *Semaphore) TryDown() bool {
	s := sem.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	if sem.value == 0 {
		return false
	}
	sem.value--
	return true
}

// Up is V(sem): increments value and, if any thread is waiting, wakes the
// single highest-effective-priority waiter (§4.4). The waiter list is
// re-sorted first since donation may have reordered priorities while queued.
// If waking that thread raises the ready set's maximum effective priority
// above the caller's, the caller yields before returning.
func (sem *Semaphore) Up() {
	s := sem.sched
	s.mu.Lock()

	sem.waiters.SortDescending(s.byEffectivePriorityDesc)
	var woken *Thread
	if e := sem.waiters.PopFront(); e != nil {
		woken = threadOf(e)
		woken.waitingOn = nil
		s.unblockLocked(woken)
	}
	sem.value++

	cur := s.current
	yield := woken != nil && !woken.isIdle && s.effectivePriorityLocked(woken) > s.effectivePriorityLocked(cur)
	s.mu.Unlock()

	if yield {
		s.Yield()
	}
}
