package wasm

// The engine module is a Duktape-family interpreter compiled as a WASI
// reactor. Unlike a command build, which blocks in _start, the reactor model
// lets the host drive the engine's stack API call by call. The build carries
// a small embedding shim (the duktig_* exports) for the heap lifecycle, for
// operations that exist only as C macros and so never show up as exports,
// and for the trampoline thunk that cannot be expressed from outside.
//
// Shim exports:
//
//	duktig_open(udata: i32) -> i32
//	    Create a heap whose interrupt token is udata. Returns the context
//	    handle, or 0 on allocation failure.
//	duktig_close(ctx: i32)
//	    Destroy the heap.
//	duktig_push_host_function(ctx: i32, nargs: i32)
//	    Push a callable whose call target invokes the duktig.native_call
//	    import. When native_call returns a negative count the thunk raises
//	    the value on top of the stack; a non-negative count is returned to
//	    the engine as the number of results. The callable's finalizer
//	    reports its registration id through duktig.native_drop.
//	duktig_peval(ctx: i32, src: i32, len: i32, name: i32, nameLen: i32) -> i32
//	duktig_pcompile(ctx: i32, src: i32, len: i32, name: i32, nameLen: i32) -> i32
//	    Protected eval/compile of a source buffer with an optional file
//	    name. Zero on success; nonzero leaves the error on the stack top.
//
// Host imports, all under the "duktig" module:
//
//	native_call(ctx: i32) -> i32
//	    The shared trampoline entry point for every registered function.
//	native_drop(id: i32)
//	    A registered callable was collected; release its registration.
//	timeout_check(udata: i32) -> i32
//	    The engine's interrupt check, polled every few thousand bytecode
//	    instructions. Nonzero aborts the running script.
const (
	hostModule      = "duktig"
	impNativeCall   = "native_call"
	impNativeDrop   = "native_drop"
	impTimeoutCheck = "timeout_check"
)

// Shim export names.
const (
	expOpen             = "duktig_open"
	expClose            = "duktig_close"
	expPushHostFunction = "duktig_push_host_function"
	expPEval            = "duktig_peval"
	expPCompile         = "duktig_pcompile"
)

// Engine stack API export names. These are the engine's own C entry points;
// only functions (not macros) survive into the export table.
const (
	expRequireStack    = "duk_require_stack"
	expGetTop          = "duk_get_top"
	expPopN            = "duk_pop_n"
	expPushCurrentFunc = "duk_push_current_function"
	expPushPointer     = "duk_push_pointer"
	expGetPointer      = "duk_get_pointer"
	expPutPropLString  = "duk_put_prop_lstring"
	expGetPropLString  = "duk_get_prop_lstring"
	expPushUndefined   = "duk_push_undefined"
	expPushLString     = "duk_push_lstring"
	expGetLString      = "duk_get_lstring"
	expIsString        = "duk_is_string"
	expIsNumber        = "duk_is_number"
	expPushNumber      = "duk_push_number"
	expGetNumber       = "duk_get_number"
	expSafeToLString   = "duk_safe_to_lstring"
	expPutGlobalString = "duk_put_global_lstring"
)

// Allocator exports for moving byte buffers into guest memory.
const (
	expMalloc = "malloc"
	expFree   = "free"
)
