package tinykernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSemaphore_TryDownRespectsValue(t *testing.T) {
	s := NewScheduler()
	s.Start()

	sem := s.NewSemaphore(1)
	assert.True(t, sem.TryDown())
	assert.False(t, sem.TryDown())

	sem.Up()
	assert.True(t, sem.TryDown())
}

func TestSemaphore_DownBlocksUntilUp(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.NoError(t, s.SetPriority(PriMin))

	sem := s.NewSemaphore(0)
	acquired := make(chan struct{})
	_, err := s.CreateThread("waiter", PriDefault, func(any) {
		sem.Down()
		close(acquired)
	}, nil)
	require.NoError(t, err)

	// waiter (PriDefault) outranks main (dropped to PriMin above), so
	// CreateThread's internal Unblock already preempted and ran it up to its
	// own blocking Down call before returning control here.
	select {
	case <-acquired:
		t.Fatal("waiter proceeded before Up")
	default:
	}

	sem.Up()
	<-acquired
}

func TestSemaphore_UpWakesHighestPriorityWaiterFirst(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.NoError(t, s.SetPriority(PriMin))

	sem := s.NewSemaphore(0)
	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(2)
	spawn := func(name string, priority int) {
		_, err := s.CreateThread(name, priority, func(any) {
			sem.Down()
			record(name)
			wg.Done()
		}, nil)
		require.NoError(t, err)
	}
	// Both outrank main (dropped to PriMin above), so CreateThread's internal
	// Unblock preempts immediately: each runs up to its own Down call, blocks,
	// and hands control straight back to main.
	spawn("low", 10)
	spawn("high", 50)

	// Each Up wakes the highest-priority waiter and, since it outranks main,
	// auto-yields to it — running it to completion before returning here.
	sem.Up()
	sem.Up()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "low"}, order)
}
