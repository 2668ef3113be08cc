//go:build linux || darwin

// Package libduk binds a natively built Duktape-family engine shared library
// through dlopen, exposing it behind the same engine.Context boundary as the
// wasm backend. No cgo is involved; symbols are resolved at runtime.
//
// Because a shared library's symbols are process-global, the call trampoline
// here is one process-wide C callback shared by every heap, and all
// registrations live in one process-wide side table. The execution-timeout
// hook requires a library built with the duktig wrapper (which compiles the
// engine with an interrupt check and exports
// duktig_set_exec_timeout_function); against a stock engine build, libduk
// still works but execution budgets are silently unavailable.
package libduk

import (
	"fmt"
	"os"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"

	"github.com/duktig-dev/duktig/internal/handle"
	"github.com/duktig-dev/duktig/native"
)

// Engine entry points resolved from the shared library. Only real functions
// can be resolved; conveniences that exist as C macros (peval, pcompile) are
// reconstructed over duk_eval_raw / duk_compile_raw.
var (
	dukCreateHeap          func(alloc, realloc, free, udata, fatal uintptr) uintptr
	dukDestroyHeap         func(ctx uintptr)
	dukRequireStack        func(ctx uintptr, extra int32)
	dukGetTop              func(ctx uintptr) int32
	dukPopN                func(ctx uintptr, n int32)
	dukPushCFunction       func(ctx uintptr, fn uintptr, nargs int32) int32
	dukSetFinalizer        func(ctx uintptr, idx int32)
	dukPushCurrentFunction func(ctx uintptr)
	dukPushPointer         func(ctx uintptr, p uintptr)
	dukGetPointer          func(ctx uintptr, idx int32) uintptr
	dukPutPropLString      func(ctx uintptr, objIdx int32, key string, keyLen uint64) int32
	dukGetPropLString      func(ctx uintptr, objIdx int32, key string, keyLen uint64) int32
	dukPushUndefined       func(ctx uintptr)
	dukPushLString         func(ctx uintptr, s string, n uint64) uintptr
	dukGetLString          func(ctx uintptr, idx int32, outLen *uint64) uintptr
	dukIsString            func(ctx uintptr, idx int32) int32
	dukIsNumber            func(ctx uintptr, idx int32) int32
	dukPushNumber          func(ctx uintptr, n float64)
	dukGetNumber           func(ctx uintptr, idx int32) float64
	dukSafeToLString       func(ctx uintptr, idx int32, outLen *uint64) uintptr
	dukPutGlobalLString    func(ctx uintptr, key string, keyLen uint64) int32
	dukEvalRaw             func(ctx uintptr, src string, n uint64, flags uint32) int32
	dukCompileRaw          func(ctx uintptr, src string, n uint64, flags uint32) int32
	dukThrowRaw            func(ctx uintptr)
)

// Compile flags from the engine's public header. The low bits of the flags
// word carry the count of extra values (such as a pushed file name) the raw
// call consumes.
const (
	compileEval       = 1 << 3
	compileSafe       = 1 << 7
	compileNoSource   = 1 << 9
	compileNoFilename = 1 << 11
)

var (
	loadOnce sync.Once
	loadErr  error

	// registry is the process-wide side table behind the shared trampoline
	// callback.
	registry = native.NewRegistry()
	tokens   = handle.NewTable()

	trampolineCB uintptr
	finalizerCB  uintptr
	fatalCB      uintptr
)

// Load resolves the engine shared library. path may be empty, in which case
// the platform's default library names are tried. Load is idempotent; only
// the first call's path matters.
func Load(path string) error {
	loadOnce.Do(func() {
		loadErr = load(path)
	})
	return loadErr
}

func load(path string) error {
	names := defaultLibNames
	if path != "" {
		names = []string{path}
	}

	var lib uintptr
	var err error
	for _, name := range names {
		lib, err = purego.Dlopen(name, purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err == nil {
			break
		}
	}
	if err != nil {
		return fmt.Errorf("load engine library: %w", err)
	}

	purego.RegisterLibFunc(&dukCreateHeap, lib, "duk_create_heap")
	purego.RegisterLibFunc(&dukDestroyHeap, lib, "duk_destroy_heap")
	purego.RegisterLibFunc(&dukRequireStack, lib, "duk_require_stack")
	purego.RegisterLibFunc(&dukGetTop, lib, "duk_get_top")
	purego.RegisterLibFunc(&dukPopN, lib, "duk_pop_n")
	purego.RegisterLibFunc(&dukPushCFunction, lib, "duk_push_c_function")
	purego.RegisterLibFunc(&dukSetFinalizer, lib, "duk_set_finalizer")
	purego.RegisterLibFunc(&dukPushCurrentFunction, lib, "duk_push_current_function")
	purego.RegisterLibFunc(&dukPushPointer, lib, "duk_push_pointer")
	purego.RegisterLibFunc(&dukGetPointer, lib, "duk_get_pointer")
	purego.RegisterLibFunc(&dukPutPropLString, lib, "duk_put_prop_lstring")
	purego.RegisterLibFunc(&dukGetPropLString, lib, "duk_get_prop_lstring")
	purego.RegisterLibFunc(&dukPushUndefined, lib, "duk_push_undefined")
	purego.RegisterLibFunc(&dukPushLString, lib, "duk_push_lstring")
	purego.RegisterLibFunc(&dukGetLString, lib, "duk_get_lstring")
	purego.RegisterLibFunc(&dukIsString, lib, "duk_is_string")
	purego.RegisterLibFunc(&dukIsNumber, lib, "duk_is_number")
	purego.RegisterLibFunc(&dukPushNumber, lib, "duk_push_number")
	purego.RegisterLibFunc(&dukGetNumber, lib, "duk_get_number")
	purego.RegisterLibFunc(&dukSafeToLString, lib, "duk_safe_to_lstring")
	purego.RegisterLibFunc(&dukPutGlobalLString, lib, "duk_put_global_lstring")
	purego.RegisterLibFunc(&dukEvalRaw, lib, "duk_eval_raw")
	purego.RegisterLibFunc(&dukCompileRaw, lib, "duk_compile_raw")
	purego.RegisterLibFunc(&dukThrowRaw, lib, "duk_throw_raw")

	trampolineCB = purego.NewCallback(func(ctx uintptr) int32 {
		return int32(registry.Dispatch(dukContext{ctx: ctx}))
	})
	finalizerCB = purego.NewCallback(func(ctx uintptr) int32 {
		return int32(registry.Finalize(dukContext{ctx: ctx}))
	})
	fatalCB = purego.NewCallback(func(udata, msg uintptr) uintptr {
		// The engine's fatal handler must not return; matching its own
		// abort() semantics is the only sound option.
		fmt.Fprintf(os.Stderr, "duktig: fatal engine error: %s\n", goString(msg))
		os.Exit(1)
		return 0
	})

	installTimeoutHook(lib)
	return nil
}

func loaded() bool {
	return dukCreateHeap != nil
}

// goString copies a NUL-terminated C string out of engine-owned memory.
func goString(p uintptr) string {
	if p == 0 {
		return ""
	}
	var b []byte
	for i := uintptr(0); ; i++ {
		c := *(*byte)(unsafe.Pointer(p + i))
		if c == 0 {
			break
		}
		b = append(b, c)
	}
	return string(b)
}
