package tinykernel

// Cond is a condition variable: a list of per-waiter one-shot semaphores,
// signaled in descending effective-priority order (§3.6, §4.6). Grounded on
// struct condition in the original synch.c, combined with the
// semaphore-per-waiter waiter-list shape from other_examples'
// nsync-cv.go.go (each waiter gets its own single-use semaphore rather than
// all waiters sharing one, so Signal can wake exactly one without
// disturbing the others).
type Cond struct {
	sched   *Scheduler
	waiters List // membership: condWaiter.elem
}

// condWaiter is a single Wait call's entry in Cond.waiters.
type condWaiter struct {
	sem  *Semaphore
	t    *Thread
	elem Elem
}

func condWaiterLess(a, b *Elem) bool {
	wa, wb := a.Owner.(*condWaiter), b.Owner.(*condWaiter)
	return wa.t.sched.effectivePriorityLocked(wa.t) > wb.t.sched.effectivePriorityLocked(wb.t)
}

// NewCond constructs an empty condition variable (§4.6 init).
func (s *Scheduler) NewCond() *Cond {
	c := &Cond{sched: s}
	c.waiters.Init()
	return c
}

// Wait atomically releases l and blocks the calling thread until signaled,
// then reacquires l before returning (§4.6). The caller must hold l.
func (c *Cond) Wait(l *Lock) {
	s := c.sched

	s.mu.Lock()
	cur := s.current
	assertf(l.sem.holder == cur, "cond: Wait called without holding the associated lock")
	w := &condWaiter{t: cur, sem: newSemaphoreLocked(s, 0)}
	w.elem.Owner = w
	c.waiters.InsertOrdered(&w.elem, condWaiterLess)
	s.mu.Unlock()

	l.Release()
	w.sem.Down()
	l.Acquire()
}

// Signal wakes the single highest-effective-priority waiter, if any (§4.6).
// Waiters are re-sorted first since priorities may have shifted (via
// donation) while queued. The caller must hold l.
func (c *Cond) Signal(l *Lock) {
	s := c.sched
	s.mu.Lock()
	assertf(l.sem.holder == s.current, "cond: Signal called without holding the associated lock")
	c.waiters.SortDescending(condWaiterLess)
	e := c.waiters.PopFront()
	s.mu.Unlock()

	if e == nil {
		return
	}
	e.Owner.(*condWaiter).sem.Up()
}

// Broadcast wakes every waiter, highest priority first (§4.6).
func (c *Cond) Broadcast(l *Lock) {
	for {
		s := c.sched
		s.mu.Lock()
		empty := c.waiters.Empty()
		s.mu.Unlock()
		if empty {
			return
		}
		c.Signal(l)
	}
}
