package tinykernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestCond_SignalWakesHighestPriorityFirstS5 implements spec.md S5: three
// threads at priorities {40, 20, 60} all wait on the same condition; three
// signals wake them in descending priority order (60, 40, 20).
func TestCond_SignalWakesHighestPriorityFirstS5(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.NoError(t, s.SetPriority(PriMin)) // every waiter below outranks main

	l := s.NewLock()
	c := s.NewCond()

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(3)
	spawn := func(name string, priority int) {
		_, err := s.CreateThread(name, priority, func(any) {
			l.Acquire()
			c.Wait(l)
			record(name)
			l.Release()
			wg.Done()
		}, nil)
		require.NoError(t, err)
	}

	// Every waiter outranks main (dropped to PriMin above), so CreateThread's
	// internal Unblock preempts immediately: each runs up to its own Wait
	// call, registers on the condition, releases the lock, and blocks,
	// handing control straight back to main.
	spawn("p40", 40)
	spawn("p20", 20)
	spawn("p60", 60)

	l.Acquire()
	// The first Signal wakes p60; since it outranks main, Up auto-yields to
	// it. p60 resumes inside Wait and tries to reacquire l — held by main, so
	// it donates 60 to main, blocks again, and hands control straight back
	// here. Main now runs at an effective 60, so the next two Signals only
	// make p40 and p20 READY without yielding to them.
	c.Signal(l)
	c.Signal(l)
	c.Signal(l)
	// Release drops main's donation and wakes the only lock waiter (p60),
	// which outranks main, so Release auto-yields to it. p60 records,
	// releases l, and exits; the scheduler then runs p40 and then p20 by
	// priority, each reacquiring l, recording, and exiting, before main runs
	// again. The whole p60 -> p40 -> p20 -> main cascade completes inside
	// this one call.
	l.Release()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"p60", "p40", "p20"}, order)
}

func TestCond_BroadcastWakesAllInPriorityOrder(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.NoError(t, s.SetPriority(PriMin)) // every waiter below outranks main

	l := s.NewLock()
	c := s.NewCond()

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
			l.Acquire()
			c.Wait(l)
			record(name)
			l.Release()
			wg.Done()
		}, nil)
		require.NoError(t, err)
	}

	// Both waiters outrank main; CreateThread's internal Unblock preempts
	// immediately and runs each up to its own blocking Wait call.
	spawn("low", 10)
	spawn("high", 50)

	l.Acquire()
	c.Broadcast(l)
	// Release wakes the highest-priority lock waiter and auto-yields to it,
	// cascading high -> low -> main exactly as in the Signal scenario above.
	l.Release()

	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"high", "low"}, order)
}

func TestCond_WaitPanicsWithoutHoldingLock(t *testing.T) {
	s := NewScheduler()
	s.Start()
	l := s.NewLock()
	c := s.NewCond()
	assert.Panics(t, func() { c.Wait(l) })
}
