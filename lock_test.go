package tinykernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLock_TryAcquireAndHeldByCurrent(t *testing.T) {
	s := NewScheduler()
	s.Start()

	l := s.NewLock()
	assert.True(t, l.TryAcquire())
	assert.True(t, l.HeldByCurrent())
	assert.False(t, l.TryAcquire()) // already held

	l.Release()
	assert.False(t, l.HeldByCurrent())
	assert.True(t, l.TryAcquire())
}

func TestLock_AcquireBlocksUntilReleased(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.NoError(t, s.SetPriority(PriMin))

	l := s.NewLock()
	l.Acquire()

	acquired := make(chan struct{})
	_, err := s.CreateThread("waiter", PriDefault, func(any) {
		l.Acquire()
		close(acquired)
		l.Release()
	}, nil)
	require.NoError(t, err)

	// waiter (PriDefault) outranks main (dropped to PriMin above), so
	// CreateThread's internal Unblock already preempted and ran it up to its
	// own blocking Acquire call before returning control here.
	select {
	case <-acquired:
		t.Fatal("waiter acquired a still-held lock")
	default:
	}

	l.Release()
	<-acquired
}

func TestLock_AcquireOwnLockPanics(t *testing.T) {
	s := NewScheduler()
	s.Start()
	l := s.NewLock()
	l.Acquire()
	assert.Panics(t, func() { l.Acquire() })
}

func TestLock_ReleaseByNonHolderPanics(t *testing.T) {
	s := NewScheduler()
	s.Start()
	l := s.NewLock()
	assert.Panics(t, func() { l.Release() })
}
