//go:build (linux || darwin) && !duktig_notimeout

package libduk

import (
	"github.com/ebitengine/purego"

	"github.com/duktig-dev/duktig/guard"
)

// installTimeoutHook wires the guard predicate into the engine's interrupt
// check. The setter symbol only exists in libraries built with the duktig
// wrapper; stock engine builds simply run without execution budgets.
func installTimeoutHook(lib uintptr) {
	if _, err := purego.Dlsym(lib, "duktig_set_exec_timeout_function"); err != nil {
		return
	}

	var setExecTimeoutFunc func(fn uintptr)
	purego.RegisterLibFunc(&setExecTimeoutFunc, lib, "duktig_set_exec_timeout_function")

	check := purego.NewCallback(func(udata uintptr) int32 {
		v, ok := tokens.Get(uint64(udata))
		if !ok {
			return 0
		}
		if guard.Current()(v) {
			return 1
		}
		return 0
	})
	setExecTimeoutFunc(check)
}

func installGuard() {
	guard.InstallDeadlinePredicate()
}
