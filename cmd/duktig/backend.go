package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/duktig-dev/duktig/libduk"
	"github.com/duktig-dev/duktig/wasm"
)

// runner is one live heap, whichever backend carries it.
type runner interface {
	Eval(ctx context.Context, src, filename string) (string, error)
	SetExecTimeout(limit time.Duration)
	Close(ctx context.Context) error
}

// backend owns the per-process engine state and mints heaps from it.
type backend interface {
	NewRunner(ctx context.Context, out io.Writer, timeout time.Duration) (runner, error)
	Close(ctx context.Context) error
}

// pickBackend decides which engine transport the settings select. The shared
// library wins when both are configured, matching the cheaper call path.
func pickBackend(cfg settings) (string, error) {
	switch {
	case cfg.Lib != "":
		return "lib", nil
	case cfg.Engine != "":
		return "wasm", nil
	default:
		return "", fmt.Errorf("no engine configured: pass --engine <engine.wasm> or --lib <libduktape.so>")
	}
}

func newBackend(ctx context.Context, cfg settings) (backend, error) {
	kind, err := pickBackend(cfg)
	if err != nil {
		return nil, err
	}
	if kind == "lib" {
		if err := libduk.Load(cfg.Lib); err != nil {
			return nil, fmt.Errorf("load engine library: %w", err)
		}
		return libBackend{}, nil
	}

	engineWasm, err := os.ReadFile(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("read engine module: %w", err)
	}

	var opts []wasm.EngineOption
	if !cfg.NoCache {
		opts = append(opts, wasm.WithDiskCache())
	}
	if pages := parseMemoryLimit(cfg.Memory); pages > 0 {
		opts = append(opts, wasm.WithMemoryLimit(pages))
	}

	eng, err := wasm.NewEngine(ctx, engineWasm, opts...)
	if err != nil {
		return nil, err
	}
	return &wasmBackend{eng: eng}, nil
}

type wasmBackend struct {
	eng *wasm.Engine
}

func (b *wasmBackend) NewRunner(ctx context.Context, out io.Writer, timeout time.Duration) (runner, error) {
	heap, err := b.eng.NewHeap(ctx,
		wasm.WithStdout(out),
		wasm.WithStderr(os.Stderr),
		wasm.WithExecTimeout(timeout),
	)
	if err != nil {
		return nil, err
	}
	if err := registerBuiltins(ctx, heap, out); err != nil {
		heap.Close(ctx)
		return nil, err
	}
	return wasmRunner{heap}, nil
}

func (b *wasmBackend) Close(ctx context.Context) error {
	return b.eng.Close()
}

type wasmRunner struct {
	heap *wasm.Heap
}

func (r wasmRunner) Eval(ctx context.Context, src, filename string) (string, error) {
	return r.heap.EvalString(ctx, src, filename)
}

func (r wasmRunner) SetExecTimeout(limit time.Duration) {
	r.heap.SetExecTimeout(limit)
}

func (r wasmRunner) Close(ctx context.Context) error {
	return r.heap.Close(ctx)
}

type libBackend struct{}

func (libBackend) NewRunner(ctx context.Context, out io.Writer, timeout time.Duration) (runner, error) {
	heap, err := libduk.NewHeap(libduk.WithExecTimeout(timeout))
	if err != nil {
		return nil, err
	}
	if err := registerLibBuiltins(heap, out); err != nil {
		heap.Close()
		return nil, err
	}
	return libRunner{heap}, nil
}

func (libBackend) Close(context.Context) error { return nil }

type libRunner struct {
	heap *libduk.Heap
}

func (r libRunner) Eval(_ context.Context, src, filename string) (string, error) {
	return r.heap.EvalString(src, filename)
}

func (r libRunner) SetExecTimeout(limit time.Duration) {
	r.heap.SetExecTimeout(limit)
}

func (r libRunner) Close(context.Context) error {
	return r.heap.Close()
}
