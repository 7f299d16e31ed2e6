// Command kerndemo is a runnable demonstration of the tinykernel scheduler:
// a short priority-donation chain (spec.md §8 scenario S1, abbreviated to
// three levels for readability) followed by a brief MLFQS run reporting
// load_avg.
//
// Run with: go run ./cmd/kerndemo/
package main

import (
	"fmt"
	"sync"

	tinykernel "github.com/joeycumines/go-tinykernel"
)

func main() {
	donationChainDemo()
	fmt.Println()
	mlfqsDemo()
}

// donationChainDemo builds a two-lock donation chain: main holds lockLow,
// mid acquires lockHigh then blocks acquiring lockLow (donating to main),
// high then blocks acquiring lockHigh (donating through mid to main).
// Prints main's effective priority at each stage.
func donationChainDemo() {
	fmt.Println("=== priority donation chain ===")

	sched := tinykernel.NewScheduler()
	sched.Start()

	if err := sched.SetPriority(tinykernel.PriMin); err != nil {
		panic(err)
	}

	lockLow := sched.NewLock()
	lockHigh := sched.NewLock()

	lockLow.Acquire()
	fmt.Printf("main: base=%d effective=%d (holds lockLow)\n",
		sched.Current().BasePriority(), sched.Current().Priority())

	var wg sync.WaitGroup
	wg.Add(2)

	// CreateThread only returns control to this (the "main" thread's own)
	// goroutine once the scheduler hands the CPU back to main — which, for
	// a newly created higher-priority thread, happens only after that
	// thread itself blocks or exits. So by the time each CreateThread call
	// below returns, the thread it created has already either donated and
	// blocked, or finished outright: no sleep-based synchronization needed.
	_, err := sched.CreateThread("mid", tinykernel.PriMin+10, func(any) {
		lockHigh.Acquire()
		lockLow.Acquire() // blocks: donates PriMin+10 to main
		lockLow.Release()
		lockHigh.Release()
		wg.Done()
	}, nil)
	if err != nil {
		panic(err)
	}

	_, err = sched.CreateThread("high", tinykernel.PriMin+20, func(any) {
		lockHigh.Acquire() // blocks: donates PriMin+20 to mid, then to main
		lockHigh.Release()
		wg.Done()
	}, nil)
	if err != nil {
		panic(err)
	}

	fmt.Printf("main: effective=%d while chain is fully built (expect %d)\n",
		sched.Current().Priority(), tinykernel.PriMin+20)

	lockLow.Release()
	wg.Wait()

	fmt.Printf("main: effective=%d after releasing lockLow (expect %d)\n",
		sched.Current().Priority(), tinykernel.PriMin)
}

// mlfqsDemo runs a single CPU-bound thread under MLFQS for a short burst of
// simulated ticks and reports the resulting load_avg, illustrating S3
// (scaled down from 60 simulated seconds for a quick demo run). The demo
// driver's own goroutine (the initial "main" thread) sleeps for the whole
// burst so it doesn't itself inflate ready_threads — a separate goroutine
// plays the part of the external timer driver from §6.
func mlfqsDemo() {
	fmt.Println("=== MLFQS load_avg ===")

	const timerFreq = 100
	const totalTicks = int64(timerFreq * 3)

	sched := tinykernel.NewScheduler(
		tinykernel.WithMLFQS(true),
		tinykernel.WithTimerFrequency(timerFreq),
	)
	sched.Start()

	done := make(chan struct{})
	_, err := sched.CreateThread("cpu-bound", tinykernel.PriDefault, func(any) {
		for {
			select {
			case <-done:
				return
			default:
				sched.CheckPreempt()
			}
		}
	}, nil)
	if err != nil {
		panic(err)
	}

	tickDone := make(chan struct{})
	go func() {
		for i := int64(0); i < totalTicks; i++ {
			sched.Tick()
		}
		close(tickDone)
	}()

	sched.SleepFor(totalTicks)
	close(done)
	<-tickDone

	fmt.Printf("load_avg*100 after 3 simulated seconds: %d\n", sched.GetLoadAvg())
}
