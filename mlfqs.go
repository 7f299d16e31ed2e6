package tinykernel

// Multilevel-feedback-queue scheduler mode (§4.3). Selected via WithMLFQS;
// mutually exclusive with the donation engine in donation.go — every
// priority-mutating entry point here is only meaningful when
// Scheduler.opts.mlfqs is true, and Tick and SetNice are the only places
// priority ever changes once MLFQS is active.
//
// Grounded on thread.c's thread_tick/update_pri/update_recent_cpu/
// decay_recent_cpu, using the canonical load_avg decay formula per spec.md
// §4.3 and §9's Open Question #1 (not the original's literal
// load_avg/(load_avg+1/2) expression).

// Tick is the timer-interrupt hook (§4.1, §4.7): the external timer driver
// calls this once per simulated tick. It advances the tick counter, updates
// idle/kernel tick statistics, performs the MLFQS periodic recomputation
// when MLFQS mode is active, wakes any sleepers whose deadline has elapsed,
// and — independent of mode — advances the running thread's quantum,
// requesting a yield once TIME_SLICE ticks have elapsed.
//
// Go offers no library-level hook to preempt a running goroutine
// mid-instruction the way a real timer interrupt preempts a CPU (see
// DESIGN.md). Tick therefore only sets a flag; CheckPreempt, called by a
// thread body at its own safe points, is what actually yields.
func (s *Scheduler) Tick() {
	s.mu.Lock()
	s.ticks++
	now := s.ticks

	cur := s.current
	if cur.isIdle {
		s.idleTicks++
	} else {
		// No user-program concept exists in this core (spec.md §1
		// Non-goals); every non-idle thread is accounted as kernel time.
		s.kernelTicks++
	}

	if s.opts.mlfqs {
		if !cur.isIdle {
			cur.recentCPU = cur.recentCPU.Add(FixedFromInt(1))
		}
		// load_avg/recent_cpu decay runs before the priority recompute below:
		// on a tick that is both a one-second boundary and a four-tick
		// boundary, priority must be derived from the just-decayed
		// recent_cpu, matching thread_tick's decay-then-priority order.
		if s.opts.timerFrequency > 0 && now%int64(s.opts.timerFrequency) == 0 {
			s.recomputeLoadAvgLocked()
			s.reg.foreach(func(t *Thread) {
				s.decayRecentCPULocked(t)
			})
		}
		if now%4 == 0 {
			s.reg.foreach(func(t *Thread) {
				s.recomputeMLFQSPriorityLocked(t)
			})
		}
	}

	s.wakeSleepersLocked(now)

	s.threadTicks++
	if s.threadTicks >= TimeSlice {
		s.yieldRequested = true
	}
	s.mu.Unlock()
}

// CheckPreempt yields if a prior Tick requested preemption for the calling
// thread's quantum. CPU-bound thread bodies must call this periodically at
// a safe point; it is the only place the request is acted on or cleared
// (Block, Yield and the blocking primitives reschedule on their own without
// consulting it): this is this module's cooperative substitute for
// "preempt on interrupt return" (§5).
func (s *Scheduler) CheckPreempt() {
	s.mu.Lock()
	yield := s.yieldRequested
	s.yieldRequested = false
	s.mu.Unlock()
	if yield {
		s.Yield()
	}
}

// recomputeMLFQSPriorityLocked recomputes t's priority from recent_cpu and
// nice (§4.3): priority = PRI_MAX - recent_cpu/4 - nice*2, clamped to
// [PRI_MIN, PRI_MAX].
func (s *Scheduler) recomputeMLFQSPriorityLocked(t *Thread) {
	if t.isIdle {
		return
	}
	p := PriMax - t.recentCPU.Div(FixedFromInt(4)).Round() - t.nice*2
	if p < PriMin {
		p = PriMin
	} else if p > PriMax {
		p = PriMax
	}
	s.setMLFQSPriorityLocked(t, p)
}

// setMLFQSPriorityLocked assigns t's priority field and, if t is currently
// READY and the new value moves it to a different bucket, re-homes it
// there ("if a thread's priority changes while it is READY, it must be
// moved to the bucket matching its new priority", §4.3).
func (s *Scheduler) setMLFQSPriorityLocked(t *Thread, p int) {
	if t.priority == p {
		return
	}
	t.priority = p
	if t.state == StateReady && !t.isIdle {
		e := &t.schedElem
		old := e.list
		old.Remove(e)
		s.ready[p].PushBack(e)
	}
}

// recomputeLoadAvgLocked updates load_avg once per second (§4.3): load_avg'
// = (59/60)*load_avg + (1/60)*ready_threads, where ready_threads is the
// count of READY threads plus the RUNNING thread, excluding idle.
func (s *Scheduler) recomputeLoadAvgLocked() {
	f5960 := FixedFromInt(59).Div(FixedFromInt(60))
	f160 := FixedFromInt(1).Div(FixedFromInt(60))
	s.loadAvg = s.loadAvg.Mul(f5960).Add(f160.Mul(FixedFromInt(s.readyThreads)))
}

// decayRecentCPULocked updates t's recent_cpu once per second (§4.3):
// recent_cpu' = (2*load_avg)/(2*load_avg+1) * recent_cpu + nice.
func (s *Scheduler) decayRecentCPULocked(t *Thread) {
	if t.isIdle {
		return
	}
	numerator := FixedFromInt(2).Mul(s.loadAvg)
	decay := numerator.Div(numerator.Add(FixedFromInt(1)))
	t.recentCPU = decay.Mul(t.recentCPU).Add(FixedFromInt(t.nice))
}

// SetNice updates the calling thread's niceness (§4.3). Returns
// ErrMLFQSRequired outside MLFQS mode, since nice has no effect on the
// donation scheduler. Supplemented from original_source/thread.c's
// thread_set_nice: rather than waiting for the next periodic recompute, the
// calling thread's priority is adjusted immediately by 2*(old-new) — the
// exact delta the periodic formula would have produced for this thread
// alone — and yields if that drops it below some ready thread (SPEC_FULL.md
// §3).
func (s *Scheduler) SetNice(nice int) error {
	if nice < NiceMin || nice > NiceMax {
		return ErrInvalidNice
	}
	s.mu.Lock()
	if !s.opts.mlfqs {
		s.mu.Unlock()
		return ErrMLFQSRequired
	}
	cur := s.current
	old := cur.nice
	cur.nice = nice
	p := cur.priority + 2*(old-nice)
	if p < PriMin {
		p = PriMin
	} else if p > PriMax {
		p = PriMax
	}
	s.setMLFQSPriorityLocked(cur, p)

	effective := s.effectivePriorityLocked(cur)
	yield := s.readyMaxPriorityLocked() > effective
	s.mu.Unlock()

	if yield {
		s.Yield()
	}
	return nil
}

// GetLoadAvg returns 100*load_avg, rounded to the nearest integer (§4.3
// thread_get_load_avg's reporting convention). Meaningful only in MLFQS
// mode; returns 0 otherwise.
func (s *Scheduler) GetLoadAvg() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadAvg.Mul(FixedFromInt(100)).Round()
}
