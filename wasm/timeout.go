//go:build !duktig_notimeout

package wasm

import (
	"context"

	"github.com/tetratelabs/wazero/api"

	"github.com/duktig-dev/duktig/guard"
)

// timeoutCheck backs the guest's duktig.timeout_check import. The engine
// polls it from its bytecode dispatch loop, passing back the udata token its
// heap was opened with; the latest installed guard predicate decides.
func (e *Engine) timeoutCheck(_ context.Context, _ api.Module, udata uint32) uint32 {
	v, ok := e.tokens.Get(uint64(udata))
	if !ok {
		return 0
	}
	if guard.Current()(v) {
		return 1
	}
	return 0
}

func (h *Heap) installGuard() {
	guard.InstallDeadlinePredicate()
}
