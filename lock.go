package tinykernel

// Lock is a binary semaphore paired with a holder reference, the substrate
// priority donation is built on (§3.5, §4.5). Grounded on struct lock in the
// original synch.c: an embedded semaphore of initial value 1 plus a holder
// pointer and the held_locks membership link.
type Lock struct {
	sem *Semaphore

	// elem is this lock's membership in its holder's heldLocks list.
	elem Elem
}

// NewLock constructs an unheld Lock (§4.5 init).
func (s *Scheduler) NewLock() *Lock {
	s.mu.Lock()
	defer s.mu.Unlock()
	l := &Lock{sem: newSemaphoreLocked(s, 1)}
	l.elem.Owner = l
	return l
}

// Acquire blocks until l is free, then takes it (§4.5). If l is currently
// held and donation mode is active, the caller's effective priority is
// donated to the holder before blocking, and the donation chain is
// propagated through whatever the holder is itself waiting on.
func (l *Lock) Acquire() {
	s := l.sem.sched

	s.mu.Lock()
	cur := s.current
	assertf(l.sem.holder != cur, "lock: deadlock — current thread already holds this lock")
	if l.sem.holder != nil && !s.opts.mlfqs {
		s.donateLocked(l.sem.holder, s.effectivePriorityLocked(cur))
	}
	s.mu.Unlock()

	l.sem.Down()

	s.mu.Lock()
	l.sem.holder = cur
	cur.waitingOn = nil
	cur.heldLocks.PushBack(&l.elem)
	s.mu.Unlock()
}

// TryAcquire is the non-blocking variant: it takes l only if it is currently
// free, returning whether it succeeded. Grounded on lock_try_acquire; never
// donates, since it never waits.
func (l *Lock) TryAcquire() bool {
	if !l.sem.TryDown() {
		return false
	}
	s := l.sem.sched
	s.mu.Lock()
	cur := s.current
	l.sem.holder = cur
	cur.heldLocks.PushBack(&l.elem)
	s.mu.Unlock()
	return true
}

// Release gives up l (§4.5). Must be called by the current holder. Recovers
// the releasing thread's effective priority to its base priority plus
// whatever is still owed by its other held locks, then signals any waiter.
func (l *Lock) Release() {
	s := l.sem.sched
	s.mu.Lock()
	l.releaseLocked(s.current)
	s.mu.Unlock()

	l.sem.Up()
}

// releaseLocked performs the state mutation half of Release (mu held):
// clearing holder, unlinking from held_locks, and recovering donation. The
// semaphore signal itself (l.sem.Up) happens outside the lock so it can
// yield without re-entering mu.
func (l *Lock) releaseLocked(holder *Thread) {
	assertf(l.sem.holder == holder, "lock: release called by thread that does not hold this lock")
	holder.heldLocks.Remove(&l.elem)
	l.sem.holder = nil
	if !l.sem.sched.opts.mlfqs {
		l.sem.sched.recoverDonationLocked(holder)
	}
}

// releaseLockLocked is releaseAllLocksLocked's per-lock step (§4.1 exit,
// §4.5 "auto-release on thread death"): it performs the same state mutation
// as Release, then signals the semaphore directly rather than reacquiring mu
// through the public Up path, since the caller (Scheduler.Exit) already
// holds mu for the whole sweep.
func (s *Scheduler) releaseLockLocked(l *Lock, holder *Thread) {
	l.releaseLocked(holder)

	sem := l.sem
	sem.waiters.SortDescending(s.byEffectivePriorityDesc)
	if e := sem.waiters.PopFront(); e != nil {
		woken := threadOf(e)
		woken.waitingOn = nil
		s.unblockLocked(woken)
	}
	sem.value++
}

// HeldByCurrent reports whether the calling thread currently holds l
// (§4.5 held_by_current).
func (l *Lock) HeldByCurrent() bool {
	s := l.sem.sched
	s.mu.Lock()
	defer s.mu.Unlock()
	return l.sem.holder == s.current
}
