package tinykernel

import (
	"errors"
	"fmt"
)

// Sentinel errors returned across the scheduler boundary. Per the error
// taxonomy, these are the only non-fatal outcomes: everything else is a
// programming violation and aborts via assertf.
var (
	// ErrNoPage is returned by CreateThread when the configured PageAllocator
	// has no backing storage available for the new thread's control block.
	ErrNoPage = errors.New("tinykernel: no page available for new thread")

	// ErrInvalidPriority is returned when a requested base priority falls
	// outside [PriMin, PriMax].
	ErrInvalidPriority = errors.New("tinykernel: priority out of range")

	// ErrInvalidNice is returned when a requested nice value falls outside
	// [NiceMin, NiceMax].
	ErrInvalidNice = errors.New("tinykernel: nice out of range")

	// ErrMLFQSRequired is returned by nice/MLFQS-only accessors when the
	// scheduler was not constructed with MLFQS enabled.
	ErrMLFQSRequired = errors.New("tinykernel: operation requires MLFQS mode")

	// ErrDonationUnavailable is returned by priority accessors that only
	// apply when the donation engine is active (MLFQS disabled).
	ErrDonationUnavailable = errors.New("tinykernel: operation unavailable in MLFQS mode")
)

// fatalError wraps an assertion-class programming violation. It is never
// returned to a caller: assertf panics with it directly, matching pintos's
// PANIC()/ASSERT() being unconditionally fatal.
type fatalError struct {
	msg string
}

func (e *fatalError) Error() string { return e.msg }

// assertf panics with a fatalError if cond is false. Used exclusively for
// programming-violation invariants (§7): invalid state transitions, stack
// corruption, interrupt-level misuse. Never used for recoverable conditions.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(&fatalError{msg: fmt.Sprintf(format, args...)})
	}
}
