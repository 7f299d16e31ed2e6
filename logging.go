package tinykernel

// Package-level logging infrastructure for scheduler diagnostics.
//
// This follows the teacher's logging.go design: a small structured Logger
// interface with a no-op default, so the scheduler never pays for logging it
// hasn't been asked to do, and an external application can plug in its own
// backend without this package taking an opinionated logging-framework
// dependency — the same choice the teacher's own production code makes
// (see DESIGN.md: logiface is a test-only dependency of the teacher, never
// wired into its production logging path).

import (
	"fmt"
	"os"
	"time"

	"github.com/joeycumines/go-catrate"
)

// LogLevel is the severity of a log entry.
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// LogEntry is a single structured scheduler diagnostic.
type LogEntry struct {
	Level     LogLevel
	Category  string // e.g. "donation", "mlfqs", "sleep", "overload"
	Message   string
	ThreadTID int64
	Fields    map[string]any
	Timestamp time.Time
}

// Logger is the structured logging interface scheduler diagnostics are sent
// through.
type Logger interface {
	Log(entry LogEntry)
	IsEnabled(level LogLevel) bool
}

// noOpLogger discards everything; it's the default so that a Scheduler built
// without WithLogger pays nothing for diagnostics.
type noOpLogger struct{}

// NewNoOpLogger returns a Logger that discards all entries.
func NewNoOpLogger() Logger { return noOpLogger{} }

func (noOpLogger) Log(LogEntry) {}

func (noOpLogger) IsEnabled(LogLevel) bool { return false }

// DefaultLogger is a minimal Logger writing plain text lines to an *os.File
// (os.Stderr by default).
type DefaultLogger struct {
	level LogLevel
	out   *os.File
}

// NewDefaultLogger returns a DefaultLogger writing to os.Stderr at the given
// minimum level.
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return &DefaultLogger{level: level, out: os.Stderr}
}

func (l *DefaultLogger) IsEnabled(level LogLevel) bool { return level >= l.level }

func (l *DefaultLogger) Log(entry LogEntry) {
	if !l.IsEnabled(entry.Level) {
		return
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	fmt.Fprintf(l.out, "%s [%s] %s tid=%d %s %v\n",
		entry.Timestamp.Format(time.RFC3339Nano), entry.Level, entry.Category,
		entry.ThreadTID, entry.Message, entry.Fields)
}

// diagnosticLog rate-limits and dispatches a scheduler diagnostic. Repeated
// donation-chain/overload warnings under a pathological workload (e.g. a
// long donation chain being rebuilt every tick) are throttled per category
// via catrate, rather than flooding whatever Logger is installed — this is
// the one place this module reaches for the teacher's sibling rate-limiting
// package rather than a hand-rolled counter.
func (s *Scheduler) diagnosticLog(level LogLevel, category, message string, tid int64, fields map[string]any) {
	if !s.opts.logger.IsEnabled(level) {
		return
	}
	if s.diagLimiter != nil {
		if _, limited := s.opts.diagnosticRates[category]; limited {
			if _, ok := s.diagLimiter.Allow(category); !ok {
				return
			}
		}
	}
	s.opts.logger.Log(LogEntry{
		Level:     level,
		Category:  category,
		Message:   message,
		ThreadTID: tid,
		Fields:    fields,
	})
}

// newDiagnosticLimiter builds the catrate.Limiter backing diagnosticLog from
// the per-category rates configured via WithDiagnosticRateLimit. Returns nil
// (meaning "unlimited") if no rates were configured.
func newDiagnosticLimiter(rates map[string]int) *catrate.Limiter {
	if len(rates) == 0 {
		return nil
	}
	// catrate limits are keyed by a single rates-per-duration map shared
	// across all categories, with per-category state kept internally
	// (Limiter.Allow(category)); collapse the configured per-category
	// per-second limits down to the strictest one, since catrate has no
	// notion of "different rate per category" in a single Limiter.
	strictest := -1
	for _, perSecond := range rates {
		if strictest == -1 || perSecond < strictest {
			strictest = perSecond
		}
	}
	if strictest <= 0 {
		return nil
	}
	return catrate.NewLimiter(map[time.Duration]int{
		time.Second: strictest,
	})
}
