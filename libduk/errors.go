package libduk

import "errors"

var (
	ErrNotLoaded   = errors.New("engine library not loaded")
	ErrHeapAlloc   = errors.New("engine heap allocation failed")
	ErrClosed      = errors.New("heap closed")
	ErrTimeout     = errors.New("execution timeout")
	ErrUnsupported = errors.New("shared-library backend not supported on this platform")
)
