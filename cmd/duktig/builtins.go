package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/duktig-dev/duktig/engine"
	"github.com/duktig-dev/duktig/libduk"
	"github.com/duktig-dev/duktig/wasm"
)

// The engine core ships no I/O, so the host provides the few globals scripts
// here expect: print for output and now for wall-clock seconds.

func printNative(out io.Writer) engine.Func {
	return func(c engine.Context) int {
		parts := make([]string, 0, c.Top())
		for i := 0; i < c.Top(); i++ {
			parts = append(parts, valueString(c, i))
		}
		fmt.Fprintln(out, strings.Join(parts, " "))
		return 0
	}
}

func nowNative(c engine.Context) int {
	c.RequireStack(1)
	c.PushNumber(float64(time.Now().UnixMilli()) / 1000)
	return 1
}

func valueString(c engine.Context, idx int) string {
	if s, ok := c.GetString(idx); ok {
		return s
	}
	if n, ok := c.GetNumber(idx); ok {
		return strconv.FormatFloat(n, 'g', -1, 64)
	}
	return "[object]"
}

func registerBuiltins(ctx context.Context, heap *wasm.Heap, out io.Writer) error {
	if err := heap.RegisterGlobal(ctx, "print", printNative(out), engine.Varargs); err != nil {
		return err
	}
	return heap.RegisterGlobal(ctx, "now", nowNative, 0)
}

func registerLibBuiltins(heap *libduk.Heap, out io.Writer) error {
	if err := heap.RegisterGlobal("print", printNative(out), engine.Varargs); err != nil {
		return err
	}
	return heap.RegisterGlobal("now", nowNative, 0)
}
