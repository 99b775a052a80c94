// Package gate implements a manual-reset event: a stateful condition
// signal with explicit Signal/Reset, robust against spurious and lost
// wakeups.
//
// Unlike a one-shot close(chan struct{}) signal, a Gate can be reset and
// re-signaled any number of times. All state transitions happen under a
// private mutex, and Wait loops on the condition variable rather than
// trusting a single wakeup, so a Signal that races a Wait is never missed
// and a spurious OS-level wakeup never causes Wait to return early.
//
// Gate is the Go-native shape of the pthread_mutex_t/pthread_cond_t pair
// original_source/plugins/sync/monitor.c calls a "monitor". The mutex
// and condition variable collapse into sync.Cond, and there is no
// separate destroy step since the Go garbage collector reclaims the
// struct once nothing references it.
package gate

import "sync"

// Gate is a manual-reset event. The zero value is not ready to use; call
// New.
type Gate struct {
	mu       sync.Mutex
	cond     *sync.Cond
	signaled bool
}

// New returns a Gate in the reset (unsignaled) state.
func New() *Gate {
	g := &Gate{}
	g.cond = sync.NewCond(&g.mu)
	return g
}

// Signal sets the Gate to the signaled state and wakes every current and
// future waiter until the next Reset. Idempotent.
func (g *Gate) Signal() {
	g.mu.Lock()
	g.signaled = true
	g.cond.Broadcast()
	g.mu.Unlock()
}

// Reset clears the signaled state. Idempotent.
func (g *Gate) Reset() {
	g.mu.Lock()
	g.signaled = false
	g.mu.Unlock()
}

// Wait blocks until the Gate has been signaled. If the Gate is already
// signaled, Wait returns immediately. The wait loop filters spurious
// wakeups: Wait never returns before a Signal call that happened, in
// program order, after the last observed Reset.
func (g *Gate) Wait() {
	g.mu.Lock()
	for !g.signaled {
		g.cond.Wait()
	}
	g.mu.Unlock()
}

// Signaled reports the current state without blocking. Intended for
// diagnostics only: callers that need to act on the state must use Wait
// to avoid a race between the check and the action.
func (g *Gate) Signaled() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.signaled
}
