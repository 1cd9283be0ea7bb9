// Package gate implements the wait/wake primitive upgrademutex builds its
// acquire protocols on: a condition variable parked on a caller-supplied
// lock, used to retry a predicate that both checks and installs state.
package gate

import "sync"

// A Gate parks goroutines until a predicate they supply becomes true.
// Several Gates can share the same underlying Locker so that predicate
// evaluation across all of them is mutually exclusive, while Signal and
// Broadcast still wake only the Gate they were called on.
type Gate struct {
	cond *sync.Cond
}

// New returns a Gate whose predicate evaluation is serialized by l. Callers
// that want two gates to serialize against each other (as upgrademutex's
// gate1 and gate2 do) pass the same Locker to both New calls.
func New(l sync.Locker) *Gate {
	return &Gate{cond: sync.NewCond(l)}
}

// Wait blocks until ready returns true, re-evaluating it under the Gate's
// lock after every wakeup (spurious or not). ready is expected to both
// check and, on success, atomically install the state its caller wants;
// Wait makes no assumption about what ready does beyond its return value.
func (g *Gate) Wait(ready func() bool) {
	g.cond.L.Lock()
	for !ready() {
		g.cond.Wait()
	}
	g.cond.L.Unlock()
}

// Signal wakes one goroutine blocked in Wait on this Gate, if any.
func (g *Gate) Signal() {
	g.cond.Signal()
}

// Broadcast wakes all goroutines blocked in Wait on this Gate.
func (g *Gate) Broadcast() {
	g.cond.Broadcast()
}
