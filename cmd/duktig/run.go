package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/duktig-dev/duktig/engine"
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Evaluate a script and print its result",
	Long: `Evaluate a script in a fresh heap and print the completion value.

Code can be provided via:
  - File argument: duktig run script.js
  - Inline flag: duktig run -c '1+1'
  - Stdin: echo '1+1' | duktig run`,
	Args: cobra.MaximumNArgs(1),
	Run:  runRun,
}

func init() {
	addRunFlags(runCmd)
	rootCmd.AddCommand(runCmd)
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("code", "c", "", "Code to evaluate")
	cmd.Flags().Bool("check", false, "Compile only, report syntax errors without running")
	cmd.Flags().Duration("timeout", 30*time.Second, "Execution timeout (0 disables)")
}

func runRun(cmd *cobra.Command, args []string) {
	code, _ := cmd.Flags().GetString("code")
	checkOnly, _ := cmd.Flags().GetBool("check")

	var source string
	var filename string

	switch {
	case code != "":
		source = code
	case len(args) > 0:
		filename = args[0]
		data, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
	default:
		// Check if stdin has data (not a terminal)
		stat, _ := os.Stdin.Stat()
		if (stat.Mode() & os.ModeCharDevice) != 0 {
			// No piped input, show help
			cmd.Help()
			return
		}
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		source = string(data)
		if source == "" {
			cmd.Help()
			return
		}
	}

	cfg, err := resolveSettings(cmd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	timeout, err := execTimeout(cmd, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	be, err := newBackend(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer be.Close(ctx)

	r, err := be.NewRunner(ctx, os.Stdout, timeout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer r.Close(ctx)

	if checkOnly {
		if err := compileOnly(ctx, r, source, filename); err != nil {
			reportScriptError(err)
			os.Exit(1)
		}
		return
	}

	result, err := r.Eval(ctx, source, filename)
	if err != nil {
		reportScriptError(err)
		os.Exit(1)
	}
	fmt.Println(result)
}

// compileOnly asks the backend to compile without running. Both heap types
// expose it; the runner interface stays small because only this path needs
// it.
func compileOnly(ctx context.Context, r runner, source, filename string) error {
	switch b := r.(type) {
	case wasmRunner:
		return b.heap.CompileString(ctx, source, filename)
	case libRunner:
		return b.heap.CompileString(source, filename)
	default:
		return errors.New("backend does not support compile-only")
	}
}

func reportScriptError(err error) {
	var se *engine.ScriptError
	if errors.As(err, &se) {
		fmt.Fprintf(os.Stderr, "%s\n", se.Message)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
