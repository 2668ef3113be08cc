// Package engine defines the boundary between duktig and an embedded
// stack-machine script engine.
//
// The engine itself (parser, bytecode interpreter, garbage collector) is an
// external collaborator. duktig reaches it only through the fixed set of
// stack primitives declared by [Context]; the wasm and libduk packages
// provide concrete implementations over an engine compiled to WebAssembly
// or built as a native shared library.
package engine

// Varargs declares a native function as variable-arity: the engine passes
// through however many arguments the script call site supplied.
const Varargs = -1

// Func is the native calling convention. The function reads its arguments
// from the context's value stack and returns an outcome code:
//
//   - a non-negative count of result values it left on top of the stack, or
//   - a negative code, in which case it must have left exactly one error
//     value on top of the stack to be raised.
//
// All negative codes are equivalent; the raised value, not the code, carries
// the error.
type Func func(Context) int

// Hidden returns key in the engine's reserved hidden-symbol namespace.
// Hidden keys cannot collide with, and are unreachable from, any property
// name script code can construct.
func Hidden(key string) string {
	return "\xff" + key
}

// Context is one isolated execution environment of the engine, exposed
// through its value stack. Stack indices follow the engine's convention:
// 0 is the bottom of the current frame, negative indices count from the top
// (-1 is the top of the stack).
//
// A Context is confined to a single goroutine at a time; none of its methods
// are safe for concurrent use.
type Context interface {
	// RequireStack reserves headroom for extra values. Manipulating the
	// stack without reserved headroom is undefined behavior in the engine,
	// so every operation that pushes must reserve first.
	RequireStack(extra int)

	// Top returns the number of values on the current frame's stack.
	Top() int

	// Pop removes the top n values.
	Pop(n int)

	// PushHostFunction pushes a callable bound to the engine's shared
	// native entry point. arity is the declared argument count, or
	// Varargs.
	PushHostFunction(arity int)

	// PushCurrentFunction pushes the callable currently being executed.
	// Only meaningful while a native call is in progress.
	PushCurrentFunction()

	// PushPointer pushes an opaque word-sized value.
	PushPointer(p uint64)

	// GetPointer returns the opaque value at idx, or 0 if the value there
	// is not a pointer.
	GetPointer(idx int) uint64

	// PutProp pops the top of the stack and stores it under key on the
	// object at idx.
	PutProp(idx int, key string)

	// GetProp pushes the value stored under key on the object at idx.
	// If the property is absent it pushes undefined and returns false.
	GetProp(idx int, key string) bool

	// PushUndefined pushes the undefined value.
	PushUndefined()

	// PushString pushes a string value.
	PushString(s string)

	// GetString returns the string at idx, reporting false if the value
	// there is not a string.
	GetString(idx int) (string, bool)

	// PushNumber pushes a number value.
	PushNumber(n float64)

	// GetNumber returns the number at idx, reporting false if the value
	// there is not a number.
	GetNumber(idx int) (float64, bool)

	// Throw raises the value on top of the stack as a script exception
	// and unwinds into the engine's own error propagation. It is declared
	// to return an outcome code so that dispatch paths can be written as
	// `return ctx.Throw()`, matching the engine's convention; whether
	// control actually returns to the caller is up to the implementation.
	Throw() int
}
