// Package guard supplies the cooperative execution-interrupt policy shared
// by every engine heap in the process.
//
// The engine's bytecode dispatcher periodically asks the active predicate
// whether the running script should be interrupted; a true answer makes the
// engine abort the script with its own timeout condition. guard owns only
// the boolean decision: no timers, no signals, no extra threads.
//
// Building with the duktig_notimeout tag removes the predicate slot and its
// API entirely; engines then fall back to their built-in behavior of never
// interrupting.
package guard

import (
	"sync/atomic"
	"time"
)

// Deadline is a wall-clock execution budget for one heap. The zero value has
// no budget and never expires. Set and Clear may be called between script
// executions from the heap's own goroutine; Expired is read from the
// engine's interrupt check.
type Deadline struct {
	// Absolute expiry in unix nanoseconds; 0 means no budget.
	expiry atomic.Int64
}

// Set starts a budget of limit from now, replacing any previous budget.
func (d *Deadline) Set(limit time.Duration) {
	d.expiry.Store(time.Now().Add(limit).UnixNano())
}

// Clear removes the budget.
func (d *Deadline) Clear() {
	d.expiry.Store(0)
}

// Expired reports whether the budget has run out.
func (d *Deadline) Expired() bool {
	at := d.expiry.Load()
	return at != 0 && time.Now().UnixNano() >= at
}
