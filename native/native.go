// Package native implements the call trampoline that carries registered Go
// functions across the engine boundary.
//
// Each registration produces an engine-level callable bound to one shared
// entry point. The real Go function never crosses the boundary: it lives in
// a side table keyed by a registration id, and the id travels as an opaque
// pointer value stored under a hidden property on the callable. When script
// code invokes the callable, the engine calls Dispatch, which recovers the
// id, dispatches to the registered function, and normalizes its outcome into
// the engine's two valid results: return n values, or raise the value on top
// of the stack.
package native

import (
	"fmt"
	"sync"

	"github.com/duktig-dev/duktig/engine"
)

// funcSlot is the hidden property under which a callable carries its
// registration id. Set exactly once, at registration time; never visible to
// script code.
var funcSlot = engine.Hidden("duktigfunc")

// Registry is the side table of registered native functions. Backends keep
// one Registry per heap (or one per process for shared-library engines);
// every callable the Registry produces dispatches through the same entry
// point without cross-talk.
type Registry struct {
	mu    sync.RWMutex
	next  uint64
	funcs map[uint64]engine.Func
}

func NewRegistry() *Registry {
	return &Registry{next: 1, funcs: make(map[uint64]engine.Func)}
}

// Register wraps fn in an engine callable and leaves it on top of the
// context's stack, ready to be bound to a global, passed as a value, or
// stored in a script data structure. arity is the declared argument count or
// engine.Varargs.
//
// Requires two free stack slots, which Register reserves itself.
func (r *Registry) Register(ctx engine.Context, fn engine.Func, arity int) {
	if fn == nil {
		panic("native: Register called with nil function")
	}

	r.mu.Lock()
	id := r.next
	r.next++
	r.funcs[id] = fn
	r.mu.Unlock()

	ctx.RequireStack(2)
	ctx.PushHostFunction(arity)
	ctx.PushPointer(id)
	ctx.PutProp(-2, funcSlot)
}

// Dispatch is the shared trampoline entry point, invoked by the engine
// whenever script code calls a registered callable. It returns the number of
// result values the function left on the stack; a negative outcome from the
// function is converted into a raise of the value on top of the stack.
//
// A callable with a missing or unknown registration slot is a registration
// bug, never a script error, and panics.
func (r *Registry) Dispatch(ctx engine.Context) int {
	ctx.RequireStack(2)
	ctx.PushCurrentFunction()
	ok := ctx.GetProp(-1, funcSlot)
	id := ctx.GetPointer(-1)
	ctx.Pop(2)
	if !ok {
		panic("native: dispatch on callable with no registration slot")
	}

	r.mu.RLock()
	fn := r.funcs[id]
	r.mu.RUnlock()
	if fn == nil {
		panic(fmt.Sprintf("native: dispatch on dropped or unknown registration %d", id))
	}

	rc := fn(ctx)
	if rc >= 0 {
		return rc
	}

	// The calling convention guarantees an error value on top of the stack
	// for any negative outcome. An empty stack here means the function
	// violated the convention.
	if ctx.Top() == 0 {
		panic("native: failure outcome with no error value on the stack")
	}
	return ctx.Throw()
}

// Finalize releases the registration behind a callable that the engine is
// collecting. It runs as an engine finalizer with the callable at stack
// index 0, and is safe to run more than once: the slot is cleared after the
// first pass.
func (r *Registry) Finalize(ctx engine.Context) int {
	ctx.RequireStack(2)
	if !ctx.GetProp(0, funcSlot) {
		ctx.Pop(1)
		return 0
	}
	id := ctx.GetPointer(-1)
	ctx.Pop(1)

	ctx.PushUndefined()
	ctx.PutProp(0, funcSlot)

	r.Drop(id)
	return 0
}

// Drop removes a registration from the side table. Used by engine backends
// whose finalizer hook reports the id directly.
func (r *Registry) Drop(id uint64) {
	r.mu.Lock()
	delete(r.funcs, id)
	r.mu.Unlock()
}

// Len returns the number of live registrations.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.funcs)
}
