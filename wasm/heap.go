package wasm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"

	"github.com/duktig-dev/duktig/engine"
	"github.com/duktig-dev/duktig/guard"
	"github.com/duktig-dev/duktig/native"
)

var (
	ErrClosed  = errors.New("heap closed")
	ErrTimeout = errors.New("execution timeout")
)

// Heap is one isolated engine instance: its own guest memory, value stack,
// and global scope. A Heap is not safe for concurrent use; confine it to one
// goroutine at a time, matching the engine's own single-threaded model.
type Heap struct {
	eng  *Engine
	mod  api.Module
	fns  exports
	reg  *native.Registry
	ctx  uint32 // guest context handle from duktig_open
	name string

	deadline *guard.Deadline
	udata    uint64
	timeout  time.Duration

	mu     sync.Mutex
	closed bool
}

// exports holds the resolved guest entry points. Resolution happens once at
// heap creation so a module missing part of the ABI fails fast.
type exports struct {
	open             api.Function
	close            api.Function
	pushHostFunction api.Function
	peval            api.Function
	pcompile         api.Function

	requireStack    api.Function
	getTop          api.Function
	popN            api.Function
	pushCurrentFunc api.Function
	pushPointer     api.Function
	getPointer      api.Function
	putPropLString  api.Function
	getPropLString  api.Function
	pushUndefined   api.Function
	pushLString     api.Function
	getLString      api.Function
	isString        api.Function
	isNumber        api.Function
	pushNumber      api.Function
	getNumber       api.Function
	safeToLString   api.Function
	putGlobalString api.Function

	malloc api.Function
	free   api.Function
}

// NewHeap instantiates a fresh engine heap from the compiled module.
func (e *Engine) NewHeap(ctx context.Context, opts ...HeapOption) (*Heap, error) {
	cfg := defaultHeapConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil, ErrClosed
	}
	name := fmt.Sprintf("heap-%d", e.nextHeap.Add(1))
	e.mu.Unlock()

	modConfig := wazero.NewModuleConfig().
		WithName(name).
		WithStartFunctions("_initialize").
		WithStdout(cfg.stdout).
		WithStderr(cfg.stderr)

	mod, err := e.runtime.InstantiateModule(ctx, e.compiled, modConfig)
	if err != nil {
		return nil, fmt.Errorf("instantiate engine: %w", err)
	}

	h := &Heap{
		eng:      e,
		mod:      mod,
		reg:      native.NewRegistry(),
		name:     name,
		deadline: &guard.Deadline{},
		timeout:  cfg.timeout,
	}

	if err := h.resolveExports(); err != nil {
		mod.Close(ctx)
		return nil, err
	}

	h.udata = e.tokens.Put(h.deadline)

	e.mu.Lock()
	e.heaps[name] = h
	e.mu.Unlock()

	h.installGuard()

	res, err := h.fns.open.Call(ctx, h.udata)
	if err != nil || len(res) == 0 || uint32(res[0]) == 0 {
		h.teardown(ctx)
		if err == nil {
			err = errors.New("engine heap allocation failed")
		}
		return nil, fmt.Errorf("open heap: %w", err)
	}
	h.ctx = uint32(res[0])

	return h, nil
}

func (h *Heap) resolveExports() error {
	var missing []string
	resolve := func(name string) api.Function {
		fn := h.mod.ExportedFunction(name)
		if fn == nil {
			missing = append(missing, name)
		}
		return fn
	}

	h.fns = exports{
		open:             resolve(expOpen),
		close:            resolve(expClose),
		pushHostFunction: resolve(expPushHostFunction),
		peval:            resolve(expPEval),
		pcompile:         resolve(expPCompile),
		requireStack:     resolve(expRequireStack),
		getTop:           resolve(expGetTop),
		popN:             resolve(expPopN),
		pushCurrentFunc:  resolve(expPushCurrentFunc),
		pushPointer:      resolve(expPushPointer),
		getPointer:       resolve(expGetPointer),
		putPropLString:   resolve(expPutPropLString),
		getPropLString:   resolve(expGetPropLString),
		pushUndefined:    resolve(expPushUndefined),
		pushLString:      resolve(expPushLString),
		getLString:       resolve(expGetLString),
		isString:         resolve(expIsString),
		isNumber:         resolve(expIsNumber),
		pushNumber:       resolve(expPushNumber),
		getNumber:        resolve(expGetNumber),
		safeToLString:    resolve(expSafeToLString),
		putGlobalString:  resolve(expPutGlobalString),
		malloc:           resolve(expMalloc),
		free:             resolve(expFree),
	}

	if len(missing) > 0 {
		return fmt.Errorf("engine module missing exports: %s", strings.Join(missing, ", "))
	}
	return nil
}

// EvalString evaluates src in the heap's global scope and returns the result
// coerced to a string. filename labels the source in engine error messages
// and may be empty. A script-raised error comes back as *engine.ScriptError;
// an exceeded execution budget comes back wrapping ErrTimeout.
func (h *Heap) EvalString(ctx context.Context, src, filename string) (string, error) {
	return h.protectedRun(ctx, src, filename, true)
}

// CompileString compiles src without running it, reporting syntax errors.
func (h *Heap) CompileString(ctx context.Context, src, filename string) error {
	_, err := h.protectedRun(ctx, src, filename, false)
	return err
}

func (h *Heap) protectedRun(ctx context.Context, src, filename string, eval bool) (string, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return "", ErrClosed
	}

	srcPtr, err := h.writeBytes(ctx, src)
	if err != nil {
		return "", err
	}
	defer h.freeBytes(ctx, srcPtr)

	namePtr, err := h.writeBytes(ctx, filename)
	if err != nil {
		return "", err
	}
	defer h.freeBytes(ctx, namePtr)

	if h.timeout > 0 {
		h.deadline.Set(h.timeout)
		defer h.deadline.Clear()
	}

	fn := h.fns.peval
	if !eval {
		fn = h.fns.pcompile
	}

	res, err := fn.Call(ctx, uint64(h.ctx),
		uint64(srcPtr), uint64(len(src)), uint64(namePtr), uint64(len(filename)))
	if err != nil {
		return "", fmt.Errorf("run source: %w", err)
	}
	rc := int32(uint32(res[0]))

	// Success leaves the result (or compiled function); failure leaves the
	// error. Either way exactly one value is on top.
	out := h.stackTopString(ctx)
	h.popValues(ctx, 1)

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
func (h *Heap) RegisterGlobal(ctx context.Context, name string, fn engine.Func, arity int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}

	gc := h.context(ctx, h.ctx)
	h.reg.Register(gc, fn, arity)

	namePtr, err := h.writeBytes(ctx, name)
	if err != nil {
		return err
	}
	defer h.freeBytes(ctx, namePtr)

	if _, err := h.fns.putGlobalString.Call(ctx, uint64(h.ctx), uint64(namePtr), uint64(len(name))); err != nil {
		return fmt.Errorf("bind global %q: %w", name, err)
	}
	return nil
}

// SetExecTimeout bounds each subsequent evaluation to limit. Zero removes
// the bound. The budget is enforced cooperatively through the guard
// predicate, so a build tagged duktig_notimeout ignores it.
func (h *Heap) SetExecTimeout(limit time.Duration) {
	h.mu.Lock()
	h.timeout = limit
	h.mu.Unlock()
}

// Close destroys the heap and its guest instance. Safe to call twice.
func (h *Heap) Close(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true

	if h.ctx != 0 {
		h.fns.close.Call(ctx, uint64(h.ctx))
	}
	return h.teardown(ctx)
}

func (h *Heap) teardown(ctx context.Context) error {
	h.eng.mu.Lock()
	delete(h.eng.heaps, h.name)
	h.eng.mu.Unlock()
	if h.udata != 0 {
		h.eng.tokens.Drop(h.udata)
	}
	return h.mod.Close(ctx)
}

// writeBytes copies s into guest memory and returns its address. Empty
// strings are passed as a null pointer with zero length.
func (h *Heap) writeBytes(ctx context.Context, s string) (uint32, error) {
	if len(s) == 0 {
		return 0, nil
	}
	res, err := h.fns.malloc.Call(ctx, uint64(len(s)))
	if err != nil {
		return 0, fmt.Errorf("guest alloc: %w", err)
	}
	ptr := uint32(res[0])
	if ptr == 0 {
		return 0, errors.New("guest alloc failed")
	}
	if !h.mod.Memory().Write(ptr, []byte(s)) {
		h.freeBytes(ctx, ptr)
		return 0, errors.New("guest memory write out of range")
	}
	return ptr, nil
}

func (h *Heap) freeBytes(ctx context.Context, ptr uint32) {
	if ptr != 0 {
		h.fns.free.Call(ctx, uint64(ptr))
	}
}

// stackTopString coerces the value on top of the stack to a string without
// disturbing it.
func (h *Heap) stackTopString(ctx context.Context) string {
	return h.context(ctx, h.ctx).safeToString(-1)
}

func (h *Heap) popValues(ctx context.Context, n int) {
	h.context(ctx, h.ctx).Pop(n)
}
