package tinykernel

import "math"

// Priority band and scheduling constants fixed by the core contract (§6).
const (
	PriMin     = 0
	PriDefault = 31
	PriMax     = 63

	NiceMin = -20
	NiceMax = 20

	// TimeSlice is the number of timer ticks given to each thread before a
	// yield is requested.
	TimeSlice = 4
)

// sentinelNoWakeup marks a Thread as not currently sleeping (§3.1).
const sentinelNoWakeup = int64(math.MaxInt64)

// threadMagic is written into every live Thread and checked by
// Scheduler.Current to detect stack/record corruption (§7).
const threadMagic = 0xcd6abf4b

// State is a thread's scheduling state (§3.1).
type State int

const (
	StateRunning State = iota
	StateReady
	StateBlocked
	StateDying
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateReady:
		return "ready"
	case StateBlocked:
		return "blocked"
	case StateDying:
		return "dying"
	default:
		return "unknown"
	}
}

// ThreadFunc is the body of a kernel thread, analogous to pintos's
// thread_func: it runs on the thread's own goroutine and, if it returns, the
// thread exits exactly as if it had called Scheduler.Exit itself.
type ThreadFunc func(aux any)

// Thread is a kernel thread control block (§3.1). Its exported accessors are
// safe to call from any goroutine; its fields are only ever mutated by the
// owning Scheduler with interrupts disabled.
type Thread struct {
	tid  int64
	name string

	state State

	basePriority int // last value set by the thread itself (thread_set_priority)
	priority     int // donated value in donation mode; MLFQS-computed value in MLFQS mode

	nice      int
	recentCPU Fixed

	wakeupTime int64 // sentinelNoWakeup unless on the sleep queue

	heldLocks List       // membership: Lock.elem, locks held by this thread
	waitingOn *Semaphore // semaphore whose waiter list currently holds this thread, or nil

	magic uint32

	// schedElem is this thread's membership in exactly one of: a ready
	// bucket, a semaphore's waiters, or the sleep queue. Never more than
	// one at a time (§3.1 invariant).
	schedElem Elem
	// allElem is this thread's membership in the scheduler's all-threads
	// registry, independent of schedElem.
	allElem Elem

	// isIdle marks the single idle thread. Checked instead of comparing
	// against Scheduler.idle so the idle thread can be excluded from ready-
	// queue/readyThreads accounting from the moment it is created, before
	// Scheduler.idle itself is assigned (see Scheduler.Start).
	isIdle bool

	fn  ThreadFunc
	aux any

	// resume gates the cooperative hand-off: the scheduler sends on resume
	// to let this thread's goroutine proceed; this thread's goroutine
	// blocks receiving from resume whenever it is not the running thread.
	// Buffered with capacity 1 so a resume sent just before the receiving
	// goroutine reaches its receive is never lost.
	resume chan struct{}

	sched *Scheduler
}

// Tid returns the thread's identifier.
func (t *Thread) Tid() int64 { return t.tid }

// Name returns the thread's human-readable label.
func (t *Thread) Name() string { return t.name }

// State returns the thread's current scheduling state.
func (t *Thread) State() State {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	return t.state
}

// BasePriority returns the priority last set by the thread's owner via
// SetPriority (or at creation).
func (t *Thread) BasePriority() int {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	return t.basePriority
}

// Priority returns the thread's current effective priority: in donation
// mode, max(basePriority, strongest donation); in MLFQS mode, the
// periodically recomputed value.
func (t *Thread) Priority() int {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	return t.sched.effectivePriorityLocked(t)
}

// Nice returns the thread's MLFQS niceness.
func (t *Thread) Nice() int {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	return t.nice
}

// RecentCPU returns 100 times the thread's recent_cpu, rounded to the
// nearest integer (matches thread_get_recent_cpu's reporting convention).
func (t *Thread) RecentCPU() int {
	t.sched.mu.Lock()
	defer t.sched.mu.Unlock()
	return t.recentCPU.Mul(FixedFromInt(100)).Round()
}

// checkMagic panics if t's magic sentinel has been corrupted, matching
// thread_current()'s stack-overflow detection (§7).
func (t *Thread) checkMagic() {
	assertf(t.magic == threadMagic, "thread: stack overflow detected (magic mismatch) in %q", t.name)
}

// threadOf recovers the owning *Thread from one of its Elem memberships
// (schedElem or allElem).
func threadOf(e *Elem) *Thread {
	return e.Owner.(*Thread)
}
