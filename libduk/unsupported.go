//go:build !linux && !darwin

package libduk

import (
	"time"

	"github.com/duktig-dev/duktig/engine"
)

// The shared-library backend needs dlopen; other platforms get a stub
// surface so callers can fall back to the wasm backend.

type Heap struct{}

func Load(path string) error {
	return ErrUnsupported
}

func NewHeap(opts ...HeapOption) (*Heap, error) {
	return nil, ErrUnsupported
}

func (h *Heap) EvalString(src, filename string) (string, error) {
	return "", ErrUnsupported
}

func (h *Heap) CompileString(src, filename string) error {
	return ErrUnsupported
}

func (h *Heap) RegisterGlobal(name string, fn engine.Func, arity int) error {
	return ErrUnsupported
}

func (h *Heap) SetExecTimeout(limit time.Duration) {}

func (h *Heap) Close() error {
	return nil
}
