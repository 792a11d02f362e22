// internal/recovery/recovery.go
// Package recovery turns a panic in main or in a sampling goroutine into a
// logged stack trace and exit status 1.
package recovery

import (
	"os"
	"runtime/debug"

	"github.com/ColonelBlimp/lasertag/internal/log"
)

// HandlePanic should be deferred at the top of main() or goroutines.
// It logs panic details and exits with code 1.
func HandlePanic() {
	if r := recover(); r != nil {
		report(r)
		os.Exit(1)
	}
}

// HandlePanicFunc logs panic details, passes the panic value to cleanup and
// exits with code 1. Cleanup typically stops capture or closes a done channel.
func HandlePanicFunc(cleanup func(r any)) {
	if r := recover(); r != nil {
		report(r)
		if cleanup != nil {
			cleanup(r)
		}
		os.Exit(1)
	}
}

// Go runs fn on a new goroutine guarded by HandlePanicFunc.
func Go(name string, fn func()) {
	go func() {
		defer HandlePanicFunc(func(any) {
			log.Errorf("%s goroutine panicked", name)
		})
		fn()
	}()
}

func report(r any) {
	log.Errorf("FATAL: %v\n\nStack trace:\n%s", r, debug.Stack())
}
