package tinykernel

// schedulerOptions holds configuration for NewScheduler. Grounded on the
// teacher's loopOptions/LoopOption pattern.
type schedulerOptions struct {
	mlfqs           bool
	timerFrequency  int
	logger          Logger
	pageAllocator   PageAllocator
	diagnosticRates map[string]int // category -> events per second, for the log rate limiter
}

func defaultSchedulerOptions() schedulerOptions {
	return schedulerOptions{
		mlfqs:          false,
		timerFrequency: 100,
		logger:         NewNoOpLogger(),
		pageAllocator:  defaultPageAllocator{},
	}
}

// Option configures a Scheduler constructed via NewScheduler.
type Option interface {
	apply(*schedulerOptions)
}

type optionFunc func(*schedulerOptions)

func (f optionFunc) apply(o *schedulerOptions) { f(o) }

// WithMLFQS selects the multilevel-feedback-queue scheduler instead of the
// priority-donation scheduler (§4.3). Once set, the donation engine's public
// entry points (SetPriority's donation path, Lock's donate-on-contend hook)
// become inert, per spec.md's "mlfqs" command-line-option contract.
func WithMLFQS(enabled bool) Option {
	return optionFunc(func(o *schedulerOptions) { o.mlfqs = enabled })
}

// WithTimerFrequency sets TIMER_FREQ, the number of Tick calls the caller
// commits to delivering per simulated second. Defaults to 100.
func WithTimerFrequency(hz int) Option {
	return optionFunc(func(o *schedulerOptions) {
		assertf(hz > 0, "tinykernel: timer frequency must be positive")
		o.timerFrequency = hz
	})
}

// WithLogger installs a structured logger for scheduler diagnostics. Defaults
// to a no-op logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *schedulerOptions) {
		if l == nil {
			l = NewNoOpLogger()
		}
		o.logger = l
	})
}

// WithPageAllocator installs a custom PageAllocator for thread backing
// storage. Defaults to an unbounded GC-backed allocator.
func WithPageAllocator(a PageAllocator) Option {
	return optionFunc(func(o *schedulerOptions) {
		if a == nil {
			a = defaultPageAllocator{}
		}
		o.pageAllocator = a
	})
}

// WithDiagnosticRateLimit caps how often a named diagnostic category (e.g.
// "donation", "overload") may log per second before being dropped.
// Categories without an explicit limit are unlimited. When several
// categories are configured, each of them is limited to the strictest of the
// configured rates (see newDiagnosticLimiter).
func WithDiagnosticRateLimit(category string, perSecond int) Option {
	return optionFunc(func(o *schedulerOptions) {
		if o.diagnosticRates == nil {
			o.diagnosticRates = make(map[string]int)
		}
		o.diagnosticRates[category] = perSecond
	})
}
