package tinykernel

// Priority donation engine (§4.2). Active only when the scheduler was NOT
// constructed with WithMLFQS; every entry point below is a no-op (or
// returns early) when MLFQS mode is selected, matching "once set, donation
// paths are inert" (§4.3, §6).
//
// Grounded on thread_set_priority/thread_donate_priority/
// thread_update_donation/thread_recover_donation in the original thread.c.
// This implementation folds the spec's separately-named donate() and
// update_donation() into a single recursive helper (donateLocked): the
// original's thread_donate_priority is already recursive at the call site
// inside lock_acquire, and a non-recursive donate() followed by a
// recursive-but-gated-on-"did this raise anything" update_donation() cannot
// correctly re-bucket a holder that was already raised to its final value
// by the first hop.

// SetPriority updates the calling thread's base priority (§4.2). Returns
// ErrDonationUnavailable in MLFQS mode without changing anything, matching
// thread_set_priority's mlfqs guard — MLFQS priority is entirely owned by
// the periodic recomputation in mlfqs.go. Lowering the base priority below
// some ready thread's effective priority yields before returning,
// preserving "the running thread has the highest effective priority" (§5).
func (s *Scheduler) SetPriority(newPriority int) error {
	if newPriority < PriMin || newPriority > PriMax {
		return ErrInvalidPriority
	}

	s.mu.Lock()
	if s.opts.mlfqs {
		s.mu.Unlock()
		return ErrDonationUnavailable
	}
	cur := s.current
	cur.basePriority = newPriority
	effective := s.effectivePriorityLocked(cur)
	yield := s.readyMaxPriorityLocked() > effective
	s.mu.Unlock()

	if yield {
		s.Yield()
	}
	return nil
}

// readyMaxPriorityLocked returns the priority of the highest non-empty ready
// bucket, or -1 if every bucket is empty.
func (s *Scheduler) readyMaxPriorityLocked() int {
	for p := PriMax; p >= PriMin; p-- {
		if !s.ready[p].Empty() {
			return p
		}
	}
	return -1
}

// resortDonatedThreadLocked fixes up t's position after its donated priority
// changed: if t is READY, it is moved to the ready bucket matching its new
// effective priority; if t is itself blocked on a semaphore, it is re-sorted
// within that semaphore's waiter list ("re-sort it on that list before
// recursing", §4.2). If t is RUNNING or DYING there is nothing to fix up.
func (s *Scheduler) resortDonatedThreadLocked(t *Thread) {
	switch {
	case t.state == StateReady && !t.isIdle:
		e := &t.schedElem
		old := e.list
		old.Remove(e)
		s.ready[s.effectivePriorityLocked(t)].PushBack(e)
	case t.waitingOn != nil:
		t.waitingOn.waiters.Resort(&t.schedElem, s.byEffectivePriorityDesc)
	}
}

// donateLocked raises holder's effective priority to at least p (§4.2
// donate), re-sorts holder wherever it is currently queued, and recurses
// into whatever holder is itself blocked on, terminating per §4.2's rule:
// a holder that is not blocked, a donation that does not raise the
// holder's priority, or the end of the chain. Each recursive step either
// strictly raises a priority or returns, so the walk terminates in at most
// as many steps as there are distinct locks in the chain (§8 property 5).
func (s *Scheduler) donateLocked(holder *Thread, p int) {
	for {
		if p <= holder.priority {
			return
		}
		before := s.effectivePriorityLocked(holder)
		holder.priority = p
		after := s.effectivePriorityLocked(holder)
		if after != before {
			s.resortDonatedThreadLocked(holder)
			s.diagnosticLog(LevelDebug, "donation", "priority donated", holder.tid, map[string]any{
				"from": before, "to": after,
			})
		}

		sem := holder.waitingOn
		if sem == nil || sem.holder == nil {
			return
		}
		holder = sem.holder
		// Propagate the donated value itself, not the prior waiter's
		// recomputed effective priority: holder's own effective priority is
		// now at least p (since priority was just raised to p, and
		// effective = max(base, priority) >= p).
	}
}

// updateDonationLocked propagates waiter's current effective priority into
// the holder of whatever semaphore waiter is presently queued on, if any
// (§4.2 update_donation). Called whenever a thread enters a semaphore
// waiter list or that list is reordered.
func (s *Scheduler) updateDonationLocked(waiter *Thread) {
	sem := waiter.waitingOn
	if sem == nil || sem.holder == nil {
		return
	}
	s.donateLocked(sem.holder, s.effectivePriorityLocked(waiter))
}

// recoverDonationLocked resets t's donated-priority component to the
// baseline and re-donates from the highest-priority waiter of every lock t
// still holds (§4.2 recover_donation). Called by Lock.Release (and the
// auto-release sweep on thread exit) after the lock's holder has already
// been cleared, so the lock being released does not contribute.
func (s *Scheduler) recoverDonationLocked(t *Thread) {
	t.priority = PriMin
	t.heldLocks.Do(func(e *Elem) {
		lock := e.Owner.(*Lock)
		front := lock.sem.waiters.Front()
		if front == nil {
			return
		}
		p := s.effectivePriorityLocked(threadOf(front))
		if p > t.priority {
			t.priority = p
		}
	})
}
