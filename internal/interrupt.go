package internal

import (
	"context"
	"sync"
)

// Interrupter lets a signal handler cancel the request in flight without
// ending the surrounding session. Only one request is tracked at a time.
type Interrupter struct {
	mu          sync.Mutex
	cancel      context.CancelFunc
	interrupted bool
}

// NewInterrupter creates an interrupter with nothing in flight
func NewInterrupter() *Interrupter {
	return &Interrupter{}
}

// Begin derives a cancellable context for one request. The returned func
// must be called when the request finishes.
func (i *Interrupter) Begin(ctx context.Context) (context.Context, func()) {
	ctx, cancel := context.WithCancel(ctx)

	i.mu.Lock()
	i.cancel = cancel
	i.interrupted = false
	i.mu.Unlock()

	return ctx, func() {
		i.mu.Lock()
		i.cancel = nil
		i.interrupted = false
		i.mu.Unlock()
		cancel()
	}
}

// Interrupt cancels the request in flight. cancelled is false when nothing
// is in flight; repeated is true when the current request was already
// interrupted and has not returned yet.
func (i *Interrupter) Interrupt() (cancelled, repeated bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.cancel == nil {
		return false, false
	}
	if i.interrupted {
		return false, true
	}
	i.interrupted = true
	i.cancel()
	return true, false
}
