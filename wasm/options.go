package wasm

import (
	"io"
	"time"
)

// EngineOption configures the Engine at creation time.
type EngineOption func(*engineConfig)

type engineConfig struct {
	diskCache        bool
	cacheDir         string
	memoryLimitPages uint32 // each page is 64KB; 0 = wazero default
}

func defaultEngineConfig() engineConfig {
	return engineConfig{}
}

// WithDiskCache enables a persistent compilation cache so repeated startups
// skip recompiling the engine module. Optionally provide a directory;
// otherwise XDG_CACHE_HOME/duktig or ~/.cache/duktig is used.
func WithDiskCache(dir ...string) EngineOption {
	return func(c *engineConfig) {
		c.diskCache = true
		if len(dir) > 0 && dir[0] != "" {
			c.cacheDir = dir[0]
		}
	}
}

// WithMemoryLimit caps guest memory. Each page is 64KB.
func WithMemoryLimit(pages uint32) EngineOption {
	return func(c *engineConfig) {
		c.memoryLimitPages = pages
	}
}

// Memory limit constants for convenience.
const (
	MemoryLimit1MB   uint32 = 16
	MemoryLimit16MB  uint32 = 256
	MemoryLimit64MB  uint32 = 1024
	MemoryLimit256MB uint32 = 4096
)

// HeapOption configures one heap instance.
type HeapOption func(*heapConfig)

type heapConfig struct {
	stdout  io.Writer
	stderr  io.Writer
	timeout time.Duration
}

func defaultHeapConfig() heapConfig {
	return heapConfig{
		stdout: io.Discard,
		stderr: io.Discard,
	}
}

// WithStdout routes the guest's stdout.
func WithStdout(w io.Writer) HeapOption {
	return func(c *heapConfig) {
		c.stdout = w
	}
}

// WithStderr routes the guest's stderr.
func WithStderr(w io.Writer) HeapOption {
	return func(c *heapConfig) {
		c.stderr = w
	}
}

// WithExecTimeout bounds each evaluation on the heap; same semantics as
// Heap.SetExecTimeout.
func WithExecTimeout(d time.Duration) HeapOption {
	return func(c *heapConfig) {
		c.timeout = d
	}
}
