package tinykernel

import (
	"sync"

	"github.com/joeycumines/go-catrate"
)

// Scheduler owns every piece of process-wide mutable scheduling state: the
// ready buckets, the sleep queue, the all-threads registry, load_avg, and
// the ready-thread counter (§9 design notes: "Global mutable state ...
// Encapsulate as a single scheduler instance"). There is exactly one
// Scheduler per simulated machine; construct it with NewScheduler.
//
// "Interrupts disabled" (§5) is realized as mu held: every method that the
// spec requires to run with interrupts off acquires mu at its single public
// entry point and never re-acquires it internally (helper methods suffixed
// Locked assume the caller already holds it). The timer driver's Tick and a
// thread's own blocking calls therefore serialize exactly as pintos's
// external-interrupt-disabled critical sections do, except realized with a
// real mutex instead of a CPU flag, since Go threads (goroutines) can run
// truly concurrently where pintos's single CPU could not.
type Scheduler struct {
	mu sync.Mutex

	opts schedulerOptions
	reg  registry

	ready [PriMax + 1]List
	sleep List

	idle    *Thread
	initial *Thread
	current *Thread

	readyThreads int // READY + RUNNING threads, excluding idle (§4.1, §4.3)

	// MLFQS state
	loadAvg Fixed
	ticks   int64

	idleTicks, kernelTicks, userTicks int64
	threadTicks                       int
	// yieldRequested is set by Tick when the running thread's quantum has
	// expired; CheckPreempt (mlfqs.go) is what actually acts on it, since
	// Tick itself runs on the timer driver's goroutine, not the running
	// thread's (§5, §9 design notes).
	yieldRequested bool

	started      bool
	idleStartSem *Semaphore

	diagLimiter *catrate.Limiter
}

// NewScheduler constructs a Scheduler and performs the equivalent of
// thread_init: it must be called exactly once, before any thread is created,
// and converts the calling goroutine into the initial thread named "main"
// (§4.1).
func NewScheduler(options ...Option) *Scheduler {
	o := defaultSchedulerOptions()
	for _, opt := range options {
		opt.apply(&o)
	}

	s := &Scheduler{opts: o}
	for i := range s.ready {
		s.ready[i].Init()
	}
	s.sleep.Init()
	s.reg.all.Init()
	s.diagLimiter = newDiagnosticLimiter(o.diagnosticRates)

	main := s.newThreadLocked("main", PriDefault)
	main.state = StateRunning
	main.tid = s.reg.allocateTID()
	s.reg.add(main)
	s.initial = main
	s.current = main
	s.readyThreads = 1

	return s
}

// newThreadLocked allocates and zero-initializes a Thread via the
// configured PageAllocator. Does not register it or pick a TID.
func (s *Scheduler) newThreadLocked(name string, priority int) *Thread {
	assertf(priority >= PriMin && priority <= PriMax, "scheduler: priority %d out of range", priority)
	t := s.opts.pageAllocator.AllocThread()
	if t == nil {
		return nil
	}
	*t = Thread{}
	t.name = name
	t.state = StateBlocked
	t.basePriority = priority
	// priority is the donation field in donation mode, where it must start
	// at the floor (PriMin) so effective = max(basePriority, priority) does
	// not permanently pin a thread above a later, lower SetPriority call.
	// In MLFQS mode priority IS the effective priority directly, so it must
	// instead start at the requested priority, ahead of its first periodic
	// recompute.
	if s.opts.mlfqs {
		t.priority = priority
	} else {
		t.priority = PriMin
	}
	t.wakeupTime = sentinelNoWakeup
	t.magic = threadMagic
	t.sched = s
	t.resume = make(chan struct{}, 1)
	t.schedElem.Owner = t
	t.allElem.Owner = t
	t.heldLocks.Init()
	if s.current != nil {
		t.nice = s.current.nice
		t.recentCPU = s.current.recentCPU
	}
	return t
}

// Start begins preemptive scheduling: it creates the idle thread at PriMin
// and waits for it to register itself (§4.1).
//
// The idle thread is marked via Thread.isIdle at creation time, before its
// goroutine ever runs, so that unblockLocked's "never enqueue idle" rule
// applies from its very first (and only) transition out of BLOCKED —
// unlike thread_start's after-the-fact `ready_threads--` correction, there
// is no window during which idle is miscounted as an ordinary ready thread
// (DESIGN.md Open Question #2).
func (s *Scheduler) Start() {
	s.mu.Lock()
	assertf(!s.started, "scheduler: Start called twice")
	s.started = true
	s.idleStartSem = newSemaphoreLocked(s, 0)

	idle := s.newThreadLocked("idle", PriMin)
	idle.isIdle = true
	idle.tid = s.reg.allocateTID()
	idle.fn = s.idleBody
	s.reg.add(idle)
	s.idle = idle
	s.mu.Unlock()

	go s.runThread(idle)
	s.Unblock(idle)

	s.idleStartSem.Down()
}

func (s *Scheduler) idleBody(aux any) {
	s.idleStartSem.Up()

	for {
		s.mu.Lock()
		s.blockLocked()
		s.mu.Unlock()
	}
}

// CreateThread creates a new thread named name with the given base priority,
// running fn with aux as its argument, and adds it to the ready queue. It
// returns ErrNoPage if no backing storage was available (§7).
func (s *Scheduler) CreateThread(name string, priority int, fn ThreadFunc, aux any) (*Thread, error) {
	assertf(fn != nil, "scheduler: CreateThread requires a non-nil ThreadFunc")

	s.mu.Lock()
	t := s.newThreadLocked(name, priority)
	if t == nil {
		s.diagnosticLog(LevelWarn, "overload", "page allocator exhausted", s.current.tid, map[string]any{"name": name})
		s.mu.Unlock()
		return nil, ErrNoPage
	}
	t.tid = s.reg.allocateTID()
	t.fn = fn
	t.aux = aux
	s.reg.add(t)
	s.mu.Unlock()

	go s.runThread(t)

	s.Unblock(t)
	return t, nil
}

// runThread is the goroutine backing a single Thread: it parks until the
// scheduler first resumes it (the Go-native substitute for switch_entry
// chaining into kernel_thread), runs the thread body, then exits.
func (s *Scheduler) runThread(t *Thread) {
	<-t.resume
	t.fn(t.aux)
	s.Exit()
}

// Current returns the thread currently occupying the single virtual CPU.
func (s *Scheduler) Current() *Thread {
	s.mu.Lock()
	defer s.mu.Unlock()
	t := s.current
	t.checkMagic()
	assertf(t.state == StateRunning, "scheduler: Current called but current thread is not running")
	return t
}

// Foreach applies f to every live thread (§4.1). Safe to call from any
// goroutine; internally disables interrupts for the duration, matching
// thread_foreach's contract.
func (s *Scheduler) Foreach(f func(t *Thread)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reg.foreach(f)
}

// --- blocking / unblocking / yielding ---

// blockLocked deschedules the current thread (mu held): sets it BLOCKED and
// hands control to the next thread. The calling goroutine does not return
// from this call until the scheduler resumes this same thread again.
func (s *Scheduler) blockLocked() {
	cur := s.current
	if !cur.isIdle {
		s.readyThreads--
	}
	cur.state = StateBlocked
	s.scheduleLocked()
}

// Block puts the calling thread to sleep; it will not run again until a
// call to Unblock. Must be called on the current thread's own goroutine.
func (s *Scheduler) Block() {
	s.mu.Lock()
	assertf(!s.current.isIdle, "scheduler: idle thread must not call Block directly (use the scheduler's internal idle loop)")
	s.blockLocked()
	s.mu.Unlock()
}

// unblockLocked moves t from BLOCKED to READY (mu held) without yielding.
func (s *Scheduler) unblockLocked(t *Thread) {
	assertf(t.state == StateBlocked, "scheduler: Unblock called on thread %q not in BLOCKED state (got %s)", t.name, t.state)
	if !t.isIdle {
		s.ready[s.effectivePriorityLocked(t)].PushBack(&t.schedElem)
		s.readyThreads++
	}
	t.state = StateReady
}

// Unblock transitions a BLOCKED thread t to READY. Does not preempt the
// calling thread — unless the caller is itself a scheduled thread with
// interrupts conceptually "on" (i.e. not already inside another disabled
// section) and t's effective priority exceeds the caller's, in which case
// it yields immediately to preserve the invariant that the running thread
// always has the highest effective priority (§4.1, §5).
func (s *Scheduler) Unblock(t *Thread) {
	s.mu.Lock()
	s.unblockLocked(t)
	cur := s.current
	yield := !t.isIdle && s.effectivePriorityLocked(t) > s.effectivePriorityLocked(cur)
	s.mu.Unlock()

	if yield {
		s.Yield()
	}
}

// yieldLocked requeues the current thread (if not idle) at the back of its
// priority bucket and hands control to the next thread.
func (s *Scheduler) yieldLocked() {
	cur := s.current
	if !cur.isIdle {
		s.ready[s.effectivePriorityLocked(cur)].PushBack(&cur.schedElem)
	}
	cur.state = StateReady
	s.scheduleLocked()
}

// Yield voluntarily gives up the CPU; the current thread remains READY and
// may be immediately rescheduled if no higher-priority thread is ready.
func (s *Scheduler) Yield() {
	s.mu.Lock()
	s.yieldLocked()
	s.mu.Unlock()
}

// releaseAllLocksLocked auto-releases every lock the current thread still
// holds, preventing its waiters from deadlocking against a dead holder
// (§4.1, §4.5, §8 property 9). Must run before the thread transitions out
// of RUNNING.
func (s *Scheduler) releaseAllLocksLocked(t *Thread) {
	for {
		e := t.heldLocks.Front()
		if e == nil {
			break
		}
		lock := e.Owner.(*Lock)
		s.releaseLockLocked(lock, t)
	}
}

// Exit releases all locks still held by the current thread, removes it from
// the all-threads registry, and terminates it. Never returns.
func (s *Scheduler) Exit() {
	s.mu.Lock()
	cur := s.current
	s.releaseAllLocksLocked(cur)
	s.reg.remove(cur)
	cur.state = StateDying
	s.readyThreads--
	s.scheduleLocked()
	// scheduleLocked never returns to a DYING thread's goroutine: it parks
	// permanently instead of waiting on resume again. Unreachable.
	panic("unreachable: scheduler resumed a DYING thread")
}

// --- next-thread selection & context switch ---

// wakeSleepersLocked moves every sleeper whose deadline has elapsed onto the
// ready queue (§4.7).
func (s *Scheduler) wakeSleepersLocked(now int64) {
	var woken []*Thread
	e := s.sleep.Front()
	for e != nil {
		next := s.sleep.Next(e)
		t := threadOf(e)
		if t.wakeupTime <= now {
			s.sleep.Remove(e)
			t.wakeupTime = sentinelNoWakeup
			woken = append(woken, t)
		}
		e = next
	}
	for _, t := range woken {
		s.unblockLocked(t)
	}
}

// nextThreadToRunLocked scans the ready buckets from PriMax down to PriMin
// and returns the head of the first non-empty bucket, or the idle thread if
// all buckets are empty (§3.2, §4.1).
func (s *Scheduler) nextThreadToRunLocked() *Thread {
	for p := PriMax; p >= PriMin; p-- {
		if e := s.ready[p].PopFront(); e != nil {
			return threadOf(e)
		}
	}
	return s.idle
}

// scheduleLocked performs the actual hand-off: pick the next thread, make it
// RUNNING, and either park the calling goroutine (if it is to run again
// later) or let it terminate (if it is DYING). mu must be held on entry;
// it is released for the duration of the park/terminate and re-acquired
// before returning (except when the caller is DYING, in which case this
// function never returns to the caller at all).
func (s *Scheduler) scheduleLocked() {
	prev := s.current
	next := s.nextThreadToRunLocked()
	assertf(prev.state != StateRunning, "scheduler: schedule called but current thread is still RUNNING")

	s.current = next
	next.state = StateRunning
	s.threadTicks = 0

	if prev != next {
		next.resume <- struct{}{}
	}

	dying := prev.state == StateDying
	s.mu.Unlock()

	if dying {
		s.opts.pageAllocator.FreeThread(prev)
		// This goroutine's work is done: runThread already returned from
		// fn and called Exit, which called us. Park forever rather than
		// returning, since there is no caller frame left to unwind to
		// that expects a further context switch.
		select {}
	}

	if prev != next {
		<-prev.resume
	}

	s.mu.Lock()
}

// --- priority accessors shared by donation.go / mlfqs.go ---

// effectivePriorityLocked computes get_pri(t): in MLFQS mode, the
// periodically recomputed priority field; otherwise, the max of the base
// priority and whatever has been donated (§4.2, §4.3).
func (s *Scheduler) effectivePriorityLocked(t *Thread) int {
	if s.opts.mlfqs {
		return t.priority
	}
	if t.priority > t.basePriority {
		return t.priority
	}
	return t.basePriority
}

// EffectivePriority is the exported, self-locking form of
// effectivePriorityLocked.
func (s *Scheduler) EffectivePriority(t *Thread) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effectivePriorityLocked(t)
}

// byEffectivePriorityDesc orders two thread-owning Elem values by
// descending effective priority, for use with List.InsertOrdered /
// List.SortDescending / List.Resort on semaphore waiter lists.
func (s *Scheduler) byEffectivePriorityDesc(a, b *Elem) bool {
	ta, tb := threadOf(a), threadOf(b)
	return s.effectivePriorityLocked(ta) > s.effectivePriorityLocked(tb)
}

// Stats reports the scheduler's tick accounting (§4.1).
type Stats struct {
	IdleTicks   int64
	KernelTicks int64
	UserTicks   int64
}

// Stats returns a snapshot of the tick statistics.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{IdleTicks: s.idleTicks, KernelTicks: s.kernelTicks, UserTicks: s.userTicks}
}
