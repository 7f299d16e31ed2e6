// Package tinykernel implements the concurrency core of a small teaching
// operating-system kernel: a preemptive, single-CPU thread scheduler with
// priority donation and an optional multilevel-feedback-queue (MLFQS) mode,
// its synchronization primitives (counting semaphore, lock, condition
// variable), and the sleep/timer bridge that lets threads block until a wall
// tick.
//
// # Architecture
//
// Everything is built around a [Scheduler], which owns the array of
// per-priority ready queues, the sleep queue, the all-threads registry, and
// the TID allocator. Each [Thread] is backed by its own goroutine; the
// Scheduler allows exactly one thread's goroutine to make progress at a
// time, handing off control via a per-thread resume channel. This is the
// Go-native substitute for a hand-written context switch: at any instant
// there is exactly one "running" thread, matching the single-CPU assumption
// the scheduling algorithms below depend on.
//
// # Two scheduling modes
//
// By default the Scheduler runs a priority-donation scheduler: threads carry
// a base priority and an effective priority, and acquiring a contended [Lock]
// donates the acquirer's effective priority to the holder, recursively
// through chains of locks. Constructing a Scheduler with [WithMLFQS] switches
// to a multilevel feedback queue instead: priority is derived from recent CPU
// usage and niceness and recomputed periodically by [Scheduler.Tick];
// donation is inert in this mode.
//
// # Synchronization primitives
//
// [Semaphore] is the primitive everything else is built from. [Lock] is a
// binary semaphore plus a holder and the donation hooks in donation.go.
// [Cond] is a list of one-shot semaphores, one per waiter, released in
// priority order.
//
// # Usage
//
//	sched := tinykernel.NewScheduler(tinykernel.WithTimerFrequency(100))
//	sched.Start()
//
//	lock := sched.NewLock()
//	sched.CreateThread("worker", tinykernel.PriDefault, func(aux any) {
//	    lock.Acquire()
//	    defer lock.Release()
//	    // ...
//	}, nil)
//
// A running thread must relinquish the virtual CPU only through a scheduler
// primitive — [Scheduler.Block], [Scheduler.Yield], [Scheduler.Exit], or a
// synchronization primitive's blocking call ([Semaphore.Down], [Lock.Acquire],
// [Cond.Wait]). Blocking on a raw Go channel or sync.WaitGroup from inside a
// thread body never hands off the CPU: the scheduler has no way to notice, so
// every other thread — including any thread the caller is waiting on — stays
// parked on its own resume channel forever.
//
// # Error types
//
//   - [ErrNoPage]: thread creation failed, no backing page available.
//   - [ErrInvalidPriority], [ErrInvalidNice]: out-of-range inputs.
//   - [ErrMLFQSRequired], [ErrDonationUnavailable]: called the wrong mode's API.
//
// All other misuse (e.g. releasing a lock you don't hold, unblocking a
// running thread) is a programming violation and panics, matching pintos's
// ASSERT/PANIC discipline — see §7 of the design notes.
package tinykernel
