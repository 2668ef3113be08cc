// Package duktig embeds a C-style stack-machine script engine behind a safe
// Go boundary.
//
// # Overview
//
// The engine speaks a value-stack protocol: arguments and results travel on
// a per-call stack, native functions report outcomes as integer codes, and
// errors propagate by raising the value on top of the stack. duktig keeps Go
// functions and Go pointers on the host side of that boundary; only opaque
// tokens cross it.
//
// Two backends host the engine:
//
//   - [wasm] instantiates an engine compiled to WebAssembly under wazero,
//     one isolated guest instance per heap.
//   - [libduk] loads the engine as a native shared library via dlopen.
//
// # Basic Usage
//
//	eng, _ := wasm.NewEngine(ctx, engineWasm, wasm.WithDiskCache())
//	defer eng.Close()
//
//	heap, _ := eng.NewHeap(ctx, wasm.WithExecTimeout(time.Second))
//	defer heap.Close(ctx)
//
//	heap.RegisterGlobal(ctx, "greet", func(c engine.Context) int {
//	    name, _ := c.GetString(0)
//	    c.RequireStack(1)
//	    c.PushString("hello " + name)
//	    return 1
//	}, 1)
//
//	result, _ := heap.EvalString(ctx, `greet("duktig")`, "")
//
// # Execution Budgets
//
// Long-running scripts are interrupted cooperatively: the engine polls a
// process-wide predicate from its dispatch loop, and each heap arms a
// deadline around every evaluation. See the [guard] package; builds tagged
// duktig_notimeout drop the mechanism entirely.
//
// See the [engine], [native], [wasm], and [libduk] packages for detailed API
// documentation.
package duktig
