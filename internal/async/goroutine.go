// Package async spawns background goroutines that survive panics in the work
// they run.
package async

import "runtime/debug"

// PanicLogger receives panic reports. logging.Logger satisfies it.
type PanicLogger interface {
	Error(format string, args ...any)
}

// Go runs fn on its own goroutine with panic recovery. name labels the
// goroutine in panic reports.
func Go(logger PanicLogger, name string, fn func()) {
	go func() {
		defer Recover(logger, name)
		fn()
	}()
}

// Recover is the deferred half of Go, exported so loops that own their
// goroutine lifecycle can scope recovery per unit of work.
func Recover(logger PanicLogger, name string) {
	r := recover()
	if r == nil || logger == nil {
		return
	}
	label := ""
	if name != "" {
		label = " [" + name + "]"
	}
	logger.Error("goroutine panic%s: %v, stack: %s", label, r, debug.Stack())
}
