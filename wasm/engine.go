// Package wasm hosts a stack-machine script engine compiled to WebAssembly
// and exposes it through the engine.Context boundary, with native calls
// carried by the native trampoline and execution budgets enforced through
// the guard predicate.
package wasm

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/duktig-dev/duktig/internal/handle"
)

// Engine owns a wazero runtime with one compiled engine module. Heaps are
// instantiated from it; each heap is an isolated guest instance with its own
// memory, stack, and globals.
type Engine struct {
	runtime  wazero.Runtime
	cache    wazero.CompilationCache
	compiled wazero.CompiledModule
	tokens   *handle.Table

	mu       sync.RWMutex
	heaps    map[string]*Heap
	nextHeap atomic.Uint64
	closed   bool
}

// NewEngine compiles engineWasm and prepares the host side of the engine
// ABI. The module must be a WASI reactor build carrying the duktig shim
// exports; see abi.go.
func NewEngine(ctx context.Context, engineWasm []byte, opts ...EngineOption) (*Engine, error) {
	cfg := defaultEngineConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	var cache wazero.CompilationCache
	var err error

	if cfg.diskCache {
		cacheDir := cfg.cacheDir
		if cacheDir == "" {
			cacheDir = defaultCacheDir()
		}
		cache, err = wazero.NewCompilationCacheWithDir(cacheDir)
		if err != nil {
			return nil, fmt.Errorf("create disk cache: %w", err)
		}
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if cache != nil {
		rtConfig = rtConfig.WithCompilationCache(cache)
	}
	if cfg.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(cfg.memoryLimitPages)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)

	e := &Engine{
		runtime: rt,
		cache:   cache,
		tokens:  handle.NewTable(),
		heaps:   make(map[string]*Heap),
	}

	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		e.Close()
		return nil, fmt.Errorf("instantiate WASI: %w", err)
	}

	if err := e.instantiateHostModule(ctx); err != nil {
		e.Close()
		return nil, fmt.Errorf("instantiate host module: %w", err)
	}

	compiled, err := rt.CompileModule(ctx, engineWasm)
	if err != nil {
		e.Close()
		return nil, fmt.Errorf("compile engine module: %w", err)
	}
	e.compiled = compiled

	return e, nil
}

// instantiateHostModule publishes the duktig imports the engine build links
// against: the shared trampoline entry point, the registration-drop hook,
// and the interrupt check.
func (e *Engine) instantiateHostModule(ctx context.Context) error {
	_, err := e.runtime.NewHostModuleBuilder(hostModule).
		NewFunctionBuilder().WithFunc(e.nativeCall).Export(impNativeCall).
		NewFunctionBuilder().WithFunc(e.nativeDrop).Export(impNativeDrop).
		NewFunctionBuilder().WithFunc(e.timeoutCheck).Export(impTimeoutCheck).
		Instantiate(ctx)
	return err
}

// nativeCall is invoked by the guest's trampoline thunk whenever script code
// calls a registered callable.
func (e *Engine) nativeCall(ctx context.Context, mod api.Module, dukCtx uint32) int32 {
	h := e.heapFor(mod)
	if h == nil {
		panic(fmt.Sprintf("wasm: native call from unknown instance %q", mod.Name()))
	}
	return int32(h.reg.Dispatch(h.context(ctx, dukCtx)))
}

// nativeDrop is invoked by the guest when a registered callable is
// collected.
func (e *Engine) nativeDrop(_ context.Context, mod api.Module, id uint32) {
	if h := e.heapFor(mod); h != nil {
		h.reg.Drop(uint64(id))
	}
}

func (e *Engine) heapFor(mod api.Module) *Heap {
	e.mu.RLock()
	h := e.heaps[mod.Name()]
	e.mu.RUnlock()
	return h
}

// Close tears down every live heap and releases the runtime.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.heaps = make(map[string]*Heap)
	e.mu.Unlock()

	ctx := context.Background()

	var errs []error
	if err := e.runtime.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	if e.cache != nil {
		if err := e.cache.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if len(errs) > 0 {
		return errs[0]
	}
	return nil
}

func defaultCacheDir() string {
	if dir := os.Getenv("XDG_CACHE_HOME"); dir != "" {
		return filepath.Join(dir, "duktig")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cache", "duktig")
	}
	return filepath.Join(os.TempDir(), "duktig-cache")
}
