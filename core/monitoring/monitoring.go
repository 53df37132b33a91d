// Package monitoring forwards unexpected engine failures to an error
// reporting backend. infra/monitoring provides the sentry implementation.
package monitoring

import (
	"strconv"
	"time"
)

// Monitor defines methods used for error reporting.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Recover()
	Flush(timeout time.Duration)
}

type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Recover()                                  {}
func (NopMonitor) Flush(time.Duration)                       {}

var current Monitor = NopMonitor{}

// Init sets the global monitor implementation.
func Init(m Monitor) {
	if m != nil {
		current = m
	}
}

// Current returns the global monitor.
func Current() Monitor { return current }

// EpochTags labels a report with the run, epoch and engine stage it came from.
func EpochTags(runID string, epoch int, stage string) map[string]string {
	return map[string]string{
		"run_id": runID,
		"epoch":  strconv.Itoa(epoch),
		"stage":  stage,
	}
}

// CaptureException records the error with optional tags.
func CaptureException(err error, tags map[string]string) {
	current.CaptureException(err, tags)
}

// Recover captures panics; it must be deferred directly.
func Recover() {
	if r := recover(); r != nil {
		current.CaptureException(panicError{r}, map[string]string{"panic": "true"})
		current.Flush(2 * time.Second)
		panic(r)
	}
}

// Flush flushes buffered events.
func Flush(d time.Duration) {
	current.Flush(d)
}

type panicError struct{ v any }

func (p panicError) Error() string { return "panic: " + toString(p.v) }

func toString(v any) string {
	switch x := v.(type) {
	case error:
		return x.Error()
	case string:
		return x
	default:
		return "unknown value"
	}
}
