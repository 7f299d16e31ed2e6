package tinykernel

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOptions_Defaults(t *testing.T) {
	o := defaultSchedulerOptions()
	assert.False(t, o.mlfqs)
	assert.Equal(t, 100, o.timerFrequency)
	assert.NotNil(t, o.logger)
	assert.NotNil(t, o.pageAllocator)
}

func TestOptions_WithMLFQS(t *testing.T) {
	o := defaultSchedulerOptions()
	WithMLFQS(true).apply(&o)
	assert.True(t, o.mlfqs)
}

func TestOptions_WithTimerFrequencyPanicsOnNonPositive(t *testing.T) {
	o := defaultSchedulerOptions()
	assert.Panics(t, func() { WithTimerFrequency(0).apply(&o) })
	assert.Panics(t, func() { WithTimerFrequency(-1).apply(&o) })
}

func TestOptions_WithLoggerNilFallsBackToNoOp(t *testing.T) {
	o := defaultSchedulerOptions()
	WithLogger(nil).apply(&o)
	assert.NotNil(t, o.logger)
	assert.False(t, o.logger.IsEnabled(LevelDebug))
}

func TestOptions_WithPageAllocatorNilFallsBackToDefault(t *testing.T) {
	o := defaultSchedulerOptions()
	WithPageAllocator(nil).apply(&o)
	assert.Equal(t, defaultPageAllocator{}, o.pageAllocator)
}

func TestOptions_WithDiagnosticRateLimitAccumulates(t *testing.T) {
	o := defaultSchedulerOptions()
	WithDiagnosticRateLimit("donation", 5).apply(&o)
	WithDiagnosticRateLimit("overload", 2).apply(&o)
	assert.Equal(t, 5, o.diagnosticRates["donation"])
	assert.Equal(t, 2, o.diagnosticRates["overload"])
}
