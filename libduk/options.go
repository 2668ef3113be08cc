package libduk

import "time"

// HeapOption configures one heap.
type HeapOption func(*heapConfig)

type heapConfig struct {
	timeout time.Duration
}

func defaultHeapConfig() heapConfig {
	return heapConfig{}
}

// WithExecTimeout bounds each evaluation on the heap; same semantics as
// Heap.SetExecTimeout.
func WithExecTimeout(d time.Duration) HeapOption {
	return func(c *heapConfig) {
		c.timeout = d
	}
}
