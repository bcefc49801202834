// Package shutdown provides the process-wide stop flag consumed by every
// worker and both control-plane state machines.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
)

// Flag is a published boolean cancellation signal. The zero value is
// usable. A write becomes visible to any subsequent IsSet call on any
// goroutine, satisfying the one-tick publication bound required by the
// control-plane and worker loops.
type Flag struct {
	v atomic.Bool
}

// Set marks the flag as requested. Idempotent.
func (f *Flag) Set() {
	f.v.Store(true)
}

// IsSet reports whether shutdown has been requested.
func (f *Flag) IsSet() bool {
	return f.v.Load()
}

// NotifyOnSignal sets f when the process receives an interrupt,
// terminate, quit, or hangup signal. It returns a stop function that
// cancels the signal subscription; callers should invoke it on normal
// shutdown to avoid leaking the signal.Notify registration.
func (f *Flag) NotifyOnSignal() (stop func()) {
	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT, syscall.SIGHUP)

	go func() {
		<-ctx.Done()
		f.Set()
	}()

	return cancel
}
