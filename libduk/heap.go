//go:build linux || darwin

package libduk

import (
	"fmt"
	"sync"
	"time"

	"github.com/duktig-dev/duktig/engine"
	"github.com/duktig-dev/duktig/guard"
)

// Heap is one engine heap in the loaded shared library. Like the engine
// itself, a Heap is single-threaded; confine it to one goroutine at a time.
type Heap struct {
	ctx      uintptr
	deadline *guard.Deadline
	udata    uint64
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
}

// NewHeap creates a heap. Load must have succeeded first.
func NewHeap(opts ...HeapOption) (*Heap, error) {
	if !loaded() {
		return nil, ErrNotLoaded
	}

	cfg := defaultHeapConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	h := &Heap{
		deadline: &guard.Deadline{},
		timeout:  cfg.timeout,
	}
	h.udata = tokens.Put(h.deadline)

	installGuard()

	h.ctx = dukCreateHeap(0, 0, 0, uintptr(h.udata), fatalCB)
	if h.ctx == 0 {
		tokens.Drop(h.udata)
		return nil, ErrHeapAlloc
	}
	return h, nil
}

// EvalString evaluates src in the heap's global scope and returns the result
// coerced to a string. filename labels the source in engine error messages
// and may be empty. Script errors come back as *engine.ScriptError; an
// exceeded execution budget wraps ErrTimeout.
func (h *Heap) EvalString(src, filename string) (string, error) {
	return h.protectedRun(src, filename, true)
}

// CompileString compiles src without running it, reporting syntax errors.
func (h *Heap) CompileString(src, filename string) error {
	_, err := h.protectedRun(src, filename, false)
	return err
}

func (h *Heap) protectedRun(src, filename string, eval bool) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", ErrClosed
	}

	c := dukContext{ctx: h.ctx}

	flags := uint32(compileSafe | compileNoSource)
	if eval {
		flags |= compileEval
	}
	if filename != "" {
		// The raw call consumes the pushed file name; the low flag bit is
		// that extra value's count.
		c.RequireStack(1)
		c.PushString(filename)
		flags |= 1
	} else {
		flags |= compileNoFilename
	}

	if h.timeout > 0 {
		h.deadline.Set(h.timeout)
		defer h.deadline.Clear()
	}

	var rc int32
	if eval {
		rc = dukEvalRaw(h.ctx, src, uint64(len(src)), flags)
	} else {
		rc = dukCompileRaw(h.ctx, src, uint64(len(src)), flags)
	}

	out := c.safeToString(-1)
	c.Pop(1)

	if rc != 0 {
		if h.timeout > 0 && h.deadline.Expired() {
			return "", fmt.Errorf("%w after %v", ErrTimeout, h.timeout)
		}
		return "", &engine.ScriptError{Message: out}
	}
	return out, nil
}

// RegisterGlobal registers fn through the call trampoline and binds the
// resulting callable to a script-visible global name.
func (h *Heap) RegisterGlobal(name string, fn engine.Func, arity int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	c := dukContext{ctx: h.ctx}
	registry.Register(c, fn, arity)
	dukPutGlobalLString(h.ctx, name, uint64(len(name)))
	return nil
}

// SetExecTimeout bounds each subsequent evaluation to limit. Zero removes
// the bound. Requires a library built with the interrupt check; see the
// package comment.
func (h *Heap) SetExecTimeout(limit time.Duration) {
	h.mu.Lock()
	h.timeout = limit
	h.mu.Unlock()
}

// Close destroys the heap. Safe to call twice.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	dukDestroyHeap(h.ctx)
	tokens.Drop(h.udata)
	return nil
}
