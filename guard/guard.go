//go:build !duktig_notimeout

package guard

import (
	"sync"
	"sync/atomic"
)

// Predicate decides whether the currently running script should be
// interrupted. udata is the opaque token the heap was created with. The
// engine polls the active predicate from its instruction-dispatch loop, so
// implementations must be cheap and must not block.
type Predicate func(udata any) bool

// never is the default policy: execution is unbounded until a predicate is
// installed.
func never(any) bool { return false }

var active atomic.Pointer[Predicate]

// Install atomically replaces the process-wide predicate for all current and
// future heaps. There is no uninstall; to stop interrupting, install a
// predicate that always returns false. Installing nil restores the default.
//
// Install provides no ordering beyond the atomicity of the swap: a host that
// needs a heap to honor a predicate must install it before starting that
// heap's execution, and must serialize concurrent installs itself.
func Install(p Predicate) {
	if p == nil {
		p = never
	}
	active.Store(&p)
}

// Current returns the installed predicate, or the default never-interrupt
// predicate if none was ever installed. This sits on the engine's
// interrupt-check hot path; it costs one atomic load.
func Current() Predicate {
	if p := active.Load(); p != nil {
		return *p
	}
	return never
}

// DeadlinePredicate interrupts heaps whose udata token is an expired
// *Deadline. Heaps created with any other token are never interrupted.
func DeadlinePredicate(udata any) bool {
	d, ok := udata.(*Deadline)
	return ok && d.Expired()
}

var deadlineOnce sync.Once

// InstallDeadlinePredicate installs DeadlinePredicate, once per process.
// Backends call it when a heap is created so that per-heap execution budgets
// work out of the box. The once-guard only keeps repeated heap creation from
// reinstalling; a custom predicate the host installs afterwards replaces it
// like any other Install.
func InstallDeadlinePredicate() {
	deadlineOnce.Do(func() { Install(DeadlinePredicate) })
}
