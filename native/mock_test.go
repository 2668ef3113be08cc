package native

// fakeContext implements engine.Context over an in-memory value stack so
// trampoline behavior can be tested without a real engine build. It models
// the parts of the engine contract the trampoline depends on: explicit
// headroom reservation, hidden properties on callables, the current-function
// register, and raise-on-throw.

import (
	"fmt"

	"github.com/duktig-dev/duktig/engine"
)

type kind int

const (
	kindUndefined kind = iota
	kindNumber
	kindString
	kindPointer
	kindFunction
)

type fakeValue struct {
	kind kind
	num  float64
	str  string
	ptr  uint64
	fn   *fakeFunc
}

type fakeFunc struct {
	arity int
	props map[string]fakeValue
}

type fakeContext struct {
	stack    []fakeValue
	capacity int
	current  *fakeFunc
	thrown   *fakeValue
}

func newFakeContext() *fakeContext {
	return &fakeContext{}
}

func (c *fakeContext) at(idx int) *fakeValue {
	if idx < 0 {
		idx += len(c.stack)
	}
	if idx < 0 || idx >= len(c.stack) {
		panic(fmt.Sprintf("fake: stack index %d out of range", idx))
	}
	return &c.stack[idx]
}

func (c *fakeContext) push(v fakeValue) {
	if len(c.stack)+1 > c.capacity {
		panic("fake: push without reserved headroom")
	}
	c.stack = append(c.stack, v)
}

func (c *fakeContext) pop() fakeValue {
	v := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	return v
}

func (c *fakeContext) RequireStack(extra int) {
	if need := len(c.stack) + extra; need > c.capacity {
		c.capacity = need
	}
}

func (c *fakeContext) Top() int {
	return len(c.stack)
}

func (c *fakeContext) Pop(n int) {
	if n > len(c.stack) {
		panic("fake: pop past stack bottom")
	}
	c.stack = c.stack[:len(c.stack)-n]
}

func (c *fakeContext) PushHostFunction(arity int) {
	c.push(fakeValue{kind: kindFunction, fn: &fakeFunc{arity: arity, props: make(map[string]fakeValue)}})
}

func (c *fakeContext) PushCurrentFunction() {
	if c.current == nil {
		panic("fake: no native call in progress")
	}
	c.push(fakeValue{kind: kindFunction, fn: c.current})
}

func (c *fakeContext) PushPointer(p uint64) {
	c.push(fakeValue{kind: kindPointer, ptr: p})
}

func (c *fakeContext) GetPointer(idx int) uint64 {
	if v := c.at(idx); v.kind == kindPointer {
		return v.ptr
	}
	return 0
}

func (c *fakeContext) PutProp(idx int, key string) {
	obj := c.at(idx)
	if obj.kind != kindFunction {
		panic("fake: PutProp on non-object")
	}
	obj.fn.props[key] = c.pop()
}

func (c *fakeContext) GetProp(idx int, key string) bool {
	obj := c.at(idx)
	if obj.kind != kindFunction {
		panic("fake: GetProp on non-object")
	}
	v, ok := obj.fn.props[key]
	if !ok {
		v = fakeValue{kind: kindUndefined}
	}
	c.push(v)
	return ok
}

func (c *fakeContext) PushUndefined() {
	c.push(fakeValue{kind: kindUndefined})
}

func (c *fakeContext) PushString(s string) {
	c.push(fakeValue{kind: kindString, str: s})
}

func (c *fakeContext) GetString(idx int) (string, bool) {
	if v := c.at(idx); v.kind == kindString {
		return v.str, true
	}
	return "", false
}

func (c *fakeContext) PushNumber(n float64) {
	c.push(fakeValue{kind: kindNumber, num: n})
}

func (c *fakeContext) GetNumber(idx int) (float64, bool) {
	if v := c.at(idx); v.kind == kindNumber {
		return v.num, true
	}
	return 0, false
}

func (c *fakeContext) Throw() int {
	v := c.pop()
	c.thrown = &v
	return -1
}

// invoke simulates the engine calling a registered callable: a fresh frame
// holding only the arguments, the current-function register pointing at the
// callable, and Dispatch as the call target.
func (c *fakeContext) invoke(reg *Registry, callable fakeValue, args ...fakeValue) (rc int, frame []fakeValue, thrown *fakeValue) {
	if callable.kind != kindFunction {
		panic("fake: invoke on non-function")
	}

	savedStack, savedCap, savedCur := c.stack, c.capacity, c.current
	c.stack = append([]fakeValue(nil), args...)
	c.capacity = len(args)
	c.current = callable.fn
	c.thrown = nil

	rc = reg.Dispatch(c)

	frame = append([]fakeValue(nil), c.stack...)
	thrown = c.thrown
	c.stack, c.capacity, c.current = savedStack, savedCap, savedCur
	return rc, frame, thrown
}

// register pushes a callable through the Registry and hands it back, leaving
// the fake stack as it was.
func (c *fakeContext) register(reg *Registry, fn engine.Func, arity int) fakeValue {
	reg.Register(c, fn, arity)
	return c.pop()
}
