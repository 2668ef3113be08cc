// Package handle maps Go values to opaque word-sized tokens that can cross
// the engine boundary, where real Go pointers must never travel.
package handle

import "sync"

// Table allocates tokens for values and resolves them back. Token 0 is never
// allocated, so it can serve as "invalid" on the far side of the boundary.
type Table struct {
	mu   sync.RWMutex
	next uint64
	vals map[uint64]any
}

func NewTable() *Table {
	return &Table{next: 1, vals: make(map[uint64]any)}
}

// Put stores v and returns its token.
func (t *Table) Put(v any) uint64 {
	t.mu.Lock()
	h := t.next
	t.next++
	t.vals[h] = v
	t.mu.Unlock()
	return h
}

// Get resolves a token. A zero or unknown token reports false.
func (t *Table) Get(h uint64) (any, bool) {
	t.mu.RLock()
	v, ok := t.vals[h]
	t.mu.RUnlock()
	return v, ok
}

// Drop releases a token. Dropping an unknown token is a no-op.
func (t *Table) Drop(h uint64) {
	t.mu.Lock()
	delete(t.vals, h)
	t.mu.Unlock()
}
