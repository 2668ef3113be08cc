package native

import (
	"fmt"
	"testing"

	"github.com/duktig-dev/duktig/engine"
)

func mustPanic(t *testing.T, want string, fn func()) {
	t.Helper()
	defer func() {
		r := recover()
		if r == nil {
			t.Fatalf("expected panic %q, got none", want)
		}
		if msg, ok := r.(string); !ok || msg != want {
			t.Fatalf("panic = %v, want %q", r, want)
		}
	}()
	fn()
}

func TestRegisterAttachesHiddenSlot(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(engine.Context) int { return 0 }, 2)

	if callable.kind != kindFunction {
		t.Fatalf("register left %v on the stack, want function", callable.kind)
	}
	if callable.fn.arity != 2 {
		t.Fatalf("arity = %d, want 2", callable.fn.arity)
	}
	slot, ok := callable.fn.props[funcSlot]
	if !ok {
		t.Fatal("callable has no registration slot")
	}
	if slot.kind != kindPointer || slot.ptr == 0 {
		t.Fatalf("slot value = %+v, want non-zero pointer", slot)
	}
	if len(callable.fn.props) != 1 {
		t.Fatalf("callable carries %d properties, want only the slot", len(callable.fn.props))
	}
	if ctx.Top() != 0 {
		t.Fatalf("stack depth after register = %d, want 0", ctx.Top())
	}
	if reg.Len() != 1 {
		t.Fatalf("registry holds %d entries, want 1", reg.Len())
	}
}

func TestRegisterNilPanics(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()
	mustPanic(t, "native: Register called with nil function", func() {
		reg.Register(ctx, nil, 0)
	})
}

func TestDispatchNormalForwardsResultCount(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(c engine.Context) int {
		c.RequireStack(2)
		c.PushString("first")
		c.PushString("second")
		return 2
	}, engine.Varargs)

	rc, frame, thrown := ctx.invoke(reg, callable)
	if rc != 2 {
		t.Fatalf("rc = %d, want 2", rc)
	}
	if thrown != nil {
		t.Fatalf("unexpected throw: %+v", thrown)
	}
	if len(frame) != 2 || frame[0].str != "first" || frame[1].str != "second" {
		t.Fatalf("frame = %+v, want the two pushed strings", frame)
	}
}

func TestDispatchZeroResults(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(engine.Context) int { return 0 }, 0)

	rc, frame, thrown := ctx.invoke(reg, callable)
	if rc != 0 || thrown != nil {
		t.Fatalf("rc = %d, thrown = %v, want 0 and no throw", rc, thrown)
	}
	if len(frame) != 0 {
		t.Fatalf("frame depth = %d, want 0", len(frame))
	}
}

func TestDispatchStackDepthMatchesResultCount(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(c engine.Context) int {
		c.RequireStack(1)
		c.PushNumber(42)
		return 1
	}, 2)

	args := []fakeValue{
		{kind: kindNumber, num: 1},
		{kind: kindNumber, num: 2},
	}
	rc, frame, _ := ctx.invoke(reg, callable, args...)
	if rc != 1 {
		t.Fatalf("rc = %d, want 1", rc)
	}
	if got, want := len(frame), len(args)+rc; got != want {
		t.Fatalf("frame depth = %d, want %d", got, want)
	}
	if top := frame[len(frame)-1]; top.kind != kindNumber || top.num != 42 {
		t.Fatalf("top of frame = %+v, want number 42", top)
	}
}

func TestDispatchFailureRaisesTopOfStack(t *testing.T) {
	// Every negative return means the same thing: raise whatever the
	// function left on top. The exact code carries no information.
	for _, code := range []int{-1, -2, -100} {
		t.Run(fmt.Sprintf("code%d", code), func(t *testing.T) {
			reg := NewRegistry()
			ctx := newFakeContext()

			callable := ctx.register(reg, func(c engine.Context) int {
				c.RequireStack(1)
				c.PushString("boom")
				return code
			}, 0)

			rc, _, thrown := ctx.invoke(reg, callable)
			if rc != -1 {
				t.Fatalf("rc = %d, want -1", rc)
			}
			if thrown == nil || thrown.str != "boom" {
				t.Fatalf("thrown = %+v, want the pushed error value", thrown)
			}
		})
	}
}

func TestDispatchFailureWithEmptyStackPanics(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(engine.Context) int { return -1 }, 0)

	mustPanic(t, "native: failure outcome with no error value on the stack", func() {
		ctx.invoke(reg, callable)
	})
}

func TestDispatchWithoutSlotPanics(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	bare := fakeValue{kind: kindFunction, fn: &fakeFunc{props: make(map[string]fakeValue)}}
	mustPanic(t, "native: dispatch on callable with no registration slot", func() {
		ctx.invoke(reg, bare)
	})
}

func TestDispatchAfterDropPanics(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(engine.Context) int { return 0 }, 0)
	id := callable.fn.props[funcSlot].ptr
	reg.Drop(id)

	want := fmt.Sprintf("native: dispatch on dropped or unknown registration %d", id)
	mustPanic(t, want, func() {
		ctx.invoke(reg, callable)
	})
}

func TestDispatchNoCrossTalk(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	mk := func(tag string) fakeValue {
		return ctx.register(reg, func(c engine.Context) int {
			c.RequireStack(1)
			c.PushString(tag)
			return 1
		}, 0)
	}
	a, b := mk("a"), mk("b")

	for i, want := range []struct {
		callable fakeValue
		tag      string
	}{{a, "a"}, {b, "b"}, {a, "a"}, {b, "b"}, {b, "b"}, {a, "a"}} {
		rc, frame, _ := ctx.invoke(reg, want.callable)
		if rc != 1 || frame[0].str != want.tag {
			t.Fatalf("call %d: got %q, want %q", i, frame[0].str, want.tag)
		}
	}
}

func TestFinalizeReleasesRegistration(t *testing.T) {
	reg := NewRegistry()
	ctx := newFakeContext()

	callable := ctx.register(reg, func(engine.Context) int { return 0 }, 0)

	// Finalizers run with the doomed object at the bottom of the frame.
	ctx.RequireStack(1)
	ctx.push(callable)
	if rc := reg.Finalize(ctx); rc != 0 {
		t.Fatalf("finalize rc = %d, want 0", rc)
	}
	if reg.Len() != 0 {
		t.Fatalf("registry holds %d entries after finalize, want 0", reg.Len())
	}
	if slot := callable.fn.props[funcSlot]; slot.kind != kindUndefined {
		t.Fatalf("slot after finalize = %+v, want undefined", slot)
	}

	// An object can be finalized more than once; the second pass sees the
	// cleared slot and does nothing.
	if rc := reg.Finalize(ctx); rc != 0 {
		t.Fatalf("second finalize rc = %d, want 0", rc)
	}
	ctx.Pop(1)
}
