package wasm

import (
	"bytes"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func TestEngineOptions(t *testing.T) {
	cfg := defaultEngineConfig()
	if cfg.diskCache || cfg.cacheDir != "" || cfg.memoryLimitPages != 0 {
		t.Fatalf("default engine config not zero: %+v", cfg)
	}

	for _, opt := range []EngineOption{WithDiskCache(), WithMemoryLimit(MemoryLimit16MB)} {
		opt(&cfg)
	}
	if !cfg.diskCache {
		t.Fatal("disk cache not enabled")
	}
	if cfg.cacheDir != "" {
		t.Fatalf("cacheDir = %q, want default", cfg.cacheDir)
	}
	if cfg.memoryLimitPages != 256 {
		t.Fatalf("memoryLimitPages = %d, want 256", cfg.memoryLimitPages)
	}

	WithDiskCache("/var/cache/scripts")(&cfg)
	if cfg.cacheDir != "/var/cache/scripts" {
		t.Fatalf("cacheDir = %q", cfg.cacheDir)
	}
}

func TestHeapOptions(t *testing.T) {
	cfg := defaultHeapConfig()
	if cfg.stdout != io.Discard || cfg.stderr != io.Discard {
		t.Fatal("heap output must default to discard")
	}
	if cfg.timeout != 0 {
		t.Fatalf("default timeout = %v, want 0", cfg.timeout)
	}

	var out, errw bytes.Buffer
	for _, opt := range []HeapOption{
		WithStdout(&out),
		WithStderr(&errw),
		WithExecTimeout(50 * time.Millisecond),
	} {
		opt(&cfg)
	}
	if cfg.stdout != &out || cfg.stderr != &errw {
		t.Fatal("writers not applied")
	}
	if cfg.timeout != 50*time.Millisecond {
		t.Fatalf("timeout = %v", cfg.timeout)
	}
}

func TestDefaultCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "/tmp/xdg")
	if got := defaultCacheDir(); got != filepath.Join("/tmp/xdg", "duktig") {
		t.Fatalf("defaultCacheDir() = %q", got)
	}

	t.Setenv("XDG_CACHE_HOME", "")
	t.Setenv("HOME", "/home/someone")
	if got := defaultCacheDir(); got != filepath.Join("/home/someone", ".cache", "duktig") {
		t.Fatalf("defaultCacheDir() = %q", got)
	}
}

func TestStackIndexEncoding(t *testing.T) {
	cases := map[int]uint64{
		0:  0,
		1:  1,
		-1: 0xffffffff,
		-2: 0xfffffffe,
	}
	for in, want := range cases {
		if got := sidx(in); got != want {
			t.Fatalf("sidx(%d) = %#x, want %#x", in, got, want)
		}
		if back := int(int32(uint32(sidx(in)))); back != in {
			t.Fatalf("sidx(%d) does not round-trip: %d", in, back)
		}
	}
}
