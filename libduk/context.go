//go:build linux || darwin

package libduk

import "unsafe"

// dukContext adapts a raw engine context pointer to the engine.Context
// boundary. It is a plain value; copies are interchangeable.
type dukContext struct {
	ctx uintptr
}

func (c dukContext) RequireStack(extra int) {
	dukRequireStack(c.ctx, int32(extra))
}

func (c dukContext) Top() int {
	return int(dukGetTop(c.ctx))
}

func (c dukContext) Pop(n int) {
	dukPopN(c.ctx, int32(n))
}

// PushHostFunction pushes a callable bound to the shared trampoline
// callback and attaches the finalizer that releases its registration when
// the engine collects it.
func (c dukContext) PushHostFunction(arity int) {
	dukPushCFunction(c.ctx, trampolineCB, int32(arity))
	dukPushCFunction(c.ctx, finalizerCB, 1)
	dukSetFinalizer(c.ctx, -2)
}

func (c dukContext) PushCurrentFunction() {
	dukPushCurrentFunction(c.ctx)
}

func (c dukContext) PushPointer(p uint64) {
	dukPushPointer(c.ctx, uintptr(p))
}

func (c dukContext) GetPointer(idx int) uint64 {
	return uint64(dukGetPointer(c.ctx, int32(idx)))
}

func (c dukContext) PutProp(idx int, key string) {
	dukPutPropLString(c.ctx, int32(idx), key, uint64(len(key)))
}

func (c dukContext) GetProp(idx int, key string) bool {
	return dukGetPropLString(c.ctx, int32(idx), key, uint64(len(key))) != 0
}

func (c dukContext) PushUndefined() {
	dukPushUndefined(c.ctx)
}

func (c dukContext) PushString(s string) {
	dukPushLString(c.ctx, s, uint64(len(s)))
}

func (c dukContext) GetString(idx int) (string, bool) {
	if dukIsString(c.ctx, int32(idx)) == 0 {
		return "", false
	}
	var n uint64
	p := dukGetLString(c.ctx, int32(idx), &n)
	return readBytes(p, n), true
}

func (c dukContext) PushNumber(n float64) {
	dukPushNumber(c.ctx, n)
}

func (c dukContext) GetNumber(idx int) (float64, bool) {
	if dukIsNumber(c.ctx, int32(idx)) == 0 {
		return 0, false
	}
	return dukGetNumber(c.ctx, int32(idx)), true
}

// Throw raises the value on top of the stack through the engine's own
// unwinding. It does not return; the trailing return only satisfies the
// signature, matching the engine's `return duk_throw(ctx)` idiom.
func (c dukContext) Throw() int {
	dukThrowRaw(c.ctx)
	return -1
}

// safeToString coerces the value at idx to a string, never raising.
func (c dukContext) safeToString(idx int) string {
	var n uint64
	p := dukSafeToLString(c.ctx, int32(idx), &n)
	return readBytes(p, n)
}

// readBytes copies n bytes of engine-owned memory. The engine may move or
// collect the backing storage on the next stack operation, so the copy is
// taken immediately.
func readBytes(p uintptr, n uint64) string {
	if p == 0 || n == 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(unsafe.Pointer(p)), n))
}
