package tinykernel

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSleep_UntilPastDeadlineReturnsImmediately(t *testing.T) {
	s := NewScheduler()
	s.Start()
	s.Tick()
	s.Tick()
	s.SleepUntil(1) // already elapsed; must not block
	assert.Equal(t, "main", s.Current().Name())
}

func TestSleep_ForComputesRelativeDeadline(t *testing.T) {
	s := NewScheduler()
	s.Start()
	require.Equal(t, int64(0), s.Ticks())

	started := make(chan struct{})
	woke := make(chan struct{})
	_, err := s.CreateThread("sleeper", PriDefault, func(any) {
		close(started)
		s.SleepFor(3)
		close(woke)
	}, nil)
	require.NoError(t, err)

	// "sleeper" has equal priority to main, so it won't run until main
	// explicitly yields; it then calls SleepFor and blocks straight away,
	// handing control back to main.
	s.Yield()
	<-started

	for i := 0; i < 3; i++ {
		select {
		case <-woke:
			t.Fatalf("sleeper woke early at tick %d", i)
		default:
		}
		s.Tick()
	}
	s.Yield() // hand control to the now-ready sleeper so it can finish
	<-woke
}

// TestSleep_WakeOrderS4 implements spec.md S4: threads A, B, C sleep until
// ticks 100, 50, 75 respectively (in that creation order); they must wake in
// the order B (50), C (75), A (100).
func TestSleep_WakeOrderS4(t *testing.T) {
	s := NewScheduler()
	s.Start()

	var mu sync.Mutex
	var order []string
	record := func(name string) {
		mu.Lock()
		order = append(order, name)
		mu.Unlock()
	}

	var wg sync.WaitGroup
	wg.Add(3)
	spawn := func(name string, deadline int64) {
		_, err := s.CreateThread(name, PriDefault, func(any) {
			s.SleepUntil(deadline)
			record(name)
			wg.Done()
		}, nil)
		require.NoError(t, err)
	}

	spawn("A", 100)
	spawn("B", 50)
	spawn("C", 75)

	// None of A, B, C outrank main, so they only run once main yields; each
	// reaches its own SleepUntil and blocks immediately, handing off
	// directly to the next one in the same cascade, which eventually hands
	// control back to main once all three are asleep.
	s.Yield()

	for i := 0; i < 100; i++ {
		s.Tick()
	}

	// Symmetric cascade: B, C, and A each finish and hand off directly to
	// the next ready thread as they exit, landing back on main last.
	s.Yield()
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{"B", "C", "A"}, order)
}
