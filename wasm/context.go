package wasm

import (
	"context"
	"fmt"

	"github.com/tetratelabs/wazero/api"
)

// guestContext adapts one guest duk_context to the engine.Context boundary.
// Every method is a straight call into the guest's exported stack API; a
// failed call means the engine trapped outside its protected paths, which is
// a contract violation, so the adapter panics rather than inventing an error
// path the C convention does not have.
type guestContext struct {
	h     *Heap
	ctx   uint32
	goctx context.Context
}

func (h *Heap) context(goctx context.Context, ctx uint32) *guestContext {
	return &guestContext{h: h, ctx: ctx, goctx: goctx}
}

func (c *guestContext) call(fn api.Function, args ...uint64) []uint64 {
	res, err := fn.Call(c.goctx, append([]uint64{uint64(c.ctx)}, args...)...)
	if err != nil {
		panic(fmt.Sprintf("wasm: engine call failed: %v", err))
	}
	return res
}

// sidx encodes a possibly-negative stack index for the guest's i32 ABI.
func sidx(idx int) uint64 {
	return uint64(uint32(int32(idx)))
}

func (c *guestContext) RequireStack(extra int) {
	c.call(c.h.fns.requireStack, sidx(extra))
}

func (c *guestContext) Top() int {
	res := c.call(c.h.fns.getTop)
	return int(int32(uint32(res[0])))
}

func (c *guestContext) Pop(n int) {
	c.call(c.h.fns.popN, sidx(n))
}

func (c *guestContext) PushHostFunction(arity int) {
	c.call(c.h.fns.pushHostFunction, sidx(arity))
}

func (c *guestContext) PushCurrentFunction() {
	c.call(c.h.fns.pushCurrentFunc)
}

func (c *guestContext) PushPointer(p uint64) {
	c.call(c.h.fns.pushPointer, uint64(uint32(p)))
}

func (c *guestContext) GetPointer(idx int) uint64 {
	res := c.call(c.h.fns.getPointer, sidx(idx))
	return uint64(uint32(res[0]))
}

func (c *guestContext) PutProp(idx int, key string) {
	keyPtr := c.writeString(key)
	defer c.freeString(keyPtr)
	c.call(c.h.fns.putPropLString, sidx(idx), uint64(keyPtr), uint64(len(key)))
}

func (c *guestContext) GetProp(idx int, key string) bool {
	keyPtr := c.writeString(key)
	defer c.freeString(keyPtr)
	res := c.call(c.h.fns.getPropLString, sidx(idx), uint64(keyPtr), uint64(len(key)))
	return uint32(res[0]) != 0
}

func (c *guestContext) PushUndefined() {
	c.call(c.h.fns.pushUndefined)
}

func (c *guestContext) PushString(s string) {
	ptr := c.writeString(s)
	defer c.freeString(ptr)
	c.call(c.h.fns.pushLString, uint64(ptr), uint64(len(s)))
}

func (c *guestContext) GetString(idx int) (string, bool) {
	if res := c.call(c.h.fns.isString, sidx(idx)); uint32(res[0]) == 0 {
		return "", false
	}
	lenPtr := c.alloc(4)
	defer c.freeString(lenPtr)
	res := c.call(c.h.fns.getLString, sidx(idx), uint64(lenPtr))
	return c.readString(uint32(res[0]), lenPtr), true
}

func (c *guestContext) PushNumber(n float64) {
	c.call(c.h.fns.pushNumber, api.EncodeF64(n))
}

func (c *guestContext) GetNumber(idx int) (float64, bool) {
	if res := c.call(c.h.fns.isNumber, sidx(idx)); uint32(res[0]) == 0 {
		return 0, false
	}
	res := c.call(c.h.fns.getNumber, sidx(idx))
	return api.DecodeF64(res[0]), true
}

// Throw defers the raise to the guest's trampoline thunk, which raises the
// value on top of the stack whenever the shared entry point returns a
// negative count (see abi.go). The engine never sub-classifies the code, so
// -1 stands for every failure.
func (c *guestContext) Throw() int {
	return -1
}

// safeToString coerces the value at idx to a string, never raising.
func (c *guestContext) safeToString(idx int) string {
	lenPtr := c.alloc(4)
	defer c.freeString(lenPtr)
	res := c.call(c.h.fns.safeToLString, sidx(idx), uint64(lenPtr))
	return c.readString(uint32(res[0]), lenPtr)
}

func (c *guestContext) alloc(n int) uint32 {
	res, err := c.h.fns.malloc.Call(c.goctx, uint64(n))
	if err != nil || uint32(res[0]) == 0 {
		panic(fmt.Sprintf("wasm: guest alloc failed: %v", err))
	}
	return uint32(res[0])
}

func (c *guestContext) writeString(s string) uint32 {
	if len(s) == 0 {
		return 0
	}
	ptr := c.alloc(len(s))
	if !c.h.mod.Memory().Write(ptr, []byte(s)) {
		panic("wasm: guest memory write out of range")
	}
	return ptr
}

func (c *guestContext) freeString(ptr uint32) {
	if ptr != 0 {
		c.h.fns.free.Call(c.goctx, uint64(ptr))
	}
}

func (c *guestContext) readString(ptr, lenPtr uint32) string {
	if ptr == 0 {
		return ""
	}
	n, ok := c.h.mod.Memory().ReadUint32Le(lenPtr)
	if !ok {
		panic("wasm: guest memory read out of range")
	}
	b, ok := c.h.mod.Memory().Read(ptr, n)
	if !ok {
		panic("wasm: guest memory read out of range")
	}
	return string(b)
}
