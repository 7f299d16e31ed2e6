package tinykernel

// Sleep/timer bridge (§4.7): lets a thread block until a wall tick rather
// than until an explicit unblock. Built directly on the sleep queue and the
// scheduler's own block/unblock machinery; Tick (mlfqs.go) drains it every
// tick via wakeSleepersLocked (scheduler.go).

// Ticks returns the scheduler's current tick count, as last advanced by
// Tick.
func (s *Scheduler) Ticks() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ticks
}

// SleepUntil blocks the calling thread until the scheduler's tick count
// reaches or passes deadline (§4.7 sleep_until). Must be called on the
// thread's own goroutine, never from the timer driver. A deadline that has
// already elapsed returns immediately without blocking.
func (s *Scheduler) SleepUntil(deadline int64) {
	s.mu.Lock()
	cur := s.current
	assertf(!cur.isIdle, "scheduler: idle thread must not call SleepUntil")
	if deadline <= s.ticks {
		s.mu.Unlock()
		return
	}
	cur.wakeupTime = deadline
	s.sleep.PushBack(&cur.schedElem)
	s.blockLocked()
	s.mu.Unlock()
}

// SleepFor is a cooperative convenience wrapper computing an absolute
// deadline from the current tick count plus ticks, then delegating to
// SleepUntil (§4.7 sleep_for).
func (s *Scheduler) SleepFor(ticks int64) {
	s.mu.Lock()
	now := s.ticks
	s.mu.Unlock()
	s.SleepUntil(now + ticks)
}
