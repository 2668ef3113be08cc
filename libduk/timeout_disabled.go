//go:build (linux || darwin) && duktig_notimeout

package libduk

// Interrupt support is compiled out; the engine keeps its built-in behavior
// of never interrupting.
func installTimeoutHook(lib uintptr) {}

func installGuard() {}
