//go:build linux || darwin

package libduk

import (
	"testing"
	"unsafe"
)

func TestReadBytes(t *testing.T) {
	buf := []byte("hello\x00world")
	p := uintptr(unsafe.Pointer(&buf[0]))

	if got := readBytes(p, uint64(len(buf))); got != "hello\x00world" {
		t.Fatalf("readBytes = %q", got)
	}
	if got := readBytes(p, 5); got != "hello" {
		t.Fatalf("readBytes = %q", got)
	}
	if got := readBytes(0, 5); got != "" {
		t.Fatalf("readBytes(0) = %q, want empty", got)
	}
	if got := readBytes(p, 0); got != "" {
		t.Fatalf("readBytes(p, 0) = %q, want empty", got)
	}
}

func TestGoString(t *testing.T) {
	buf := []byte("typeerror: boom\x00trailing")
	p := uintptr(unsafe.Pointer(&buf[0]))

	if got := goString(p); got != "typeerror: boom" {
		t.Fatalf("goString = %q", got)
	}
	if got := goString(0); got != "" {
		t.Fatalf("goString(0) = %q, want empty", got)
	}
}

func TestEvalRequiresLoadedLibrary(t *testing.T) {
	if loaded() {
		t.Skip("engine library loaded in this process")
	}
	if _, err := NewHeap(); err != ErrNotLoaded {
		t.Fatalf("NewHeap before Load = %v, want ErrNotLoaded", err)
	}
}
