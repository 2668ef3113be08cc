package main

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/duktig-dev/duktig/wasm"
)

var rootCmd = &cobra.Command{
	Use:   "duktig [file]",
	Short: "Embedded script engine host",
	Long: `duktig - Run scripts on an embedded stack-machine engine.

The engine runs either as a WebAssembly guest (--engine points at the
engine's wasm build) or through a shared library loaded at runtime
(--lib). Scripts can be supplied from files, inline strings, or stdin,
and every evaluation can carry an execution budget.`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun, // Default to run command behavior
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("engine", "", "Path to the engine wasm build")
	rootCmd.PersistentFlags().String("lib", "", "Path to the engine shared library (dlopen backend)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default: ~/.config/duktig/config.toml)")
	rootCmd.PersistentFlags().Bool("no-cache", false, "Disable compilation cache (wasm backend)")
	rootCmd.PersistentFlags().String("memory", "", "Guest memory limit: 1mb, 16mb, 64mb, 256mb (wasm backend)")

	// Add run-specific flags to root (for default command)
	addRunFlags(rootCmd)
}

func parseMemoryLimit(s string) uint32 {
	switch strings.ToLower(s) {
	case "1mb":
		return wasm.MemoryLimit1MB
	case "16mb":
		return wasm.MemoryLimit16MB
	case "64mb":
		return wasm.MemoryLimit64MB
	case "256mb":
		return wasm.MemoryLimit256MB
	default:
		return 0 // use default
	}
}
