package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start HTTP server for script evaluation",
	Long: `Start an HTTP server that evaluates scripts in isolated heaps.

Endpoints:
  POST /eval     Evaluate code in a fresh heap, returns {"result":"..."}
  GET  /health   Health check

Each request gets its own heap, so no state leaks between requests.`,
	Run: runServe,
}

func init() {
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on")
	serveCmd.Flags().Duration("timeout", 30*time.Second, "Default execution timeout")
	rootCmd.AddCommand(serveCmd)
}

type evalRequest struct {
	Code     string `json:"code"`
	Filename string `json:"filename,omitempty"`
	Timeout  string `json:"timeout,omitempty"`
}

type evalResponse struct {
	Result     string `json:"result,omitempty"`
	Output     string `json:"output,omitempty"`
	DurationMs int64  `json:"duration_ms"`
	Error      string `json:"error,omitempty"`
}

// evalHandler evaluates each request in a heap of its own, minted from the
// shared backend.
func evalHandler(be backend, defaultTimeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		var req evalRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid json", http.StatusBadRequest)
			return
		}
		if req.Code == "" {
			http.Error(w, "code required", http.StatusBadRequest)
			return
		}

		timeout := defaultTimeout
		if req.Timeout != "" {
			if d, err := time.ParseDuration(req.Timeout); err == nil {
				timeout = d
			}
		}

		ctx := r.Context()

		// Script print output goes to a buffer rather than the response
		// writer, so it cannot interleave with the JSON body.
		var output bytes.Buffer
		rn, err := be.NewRunner(ctx, &output, timeout)
		if err != nil {
			http.Error(w, fmt.Sprintf("failed to create heap: %v", err), http.StatusInternalServerError)
			return
		}
		defer rn.Close(context.Background())

		start := time.Now()
		result, evalErr := rn.Eval(ctx, req.Code, req.Filename)
		duration := time.Since(start)

		resp := evalResponse{
			Result:     result,
			Output:     output.String(),
			DurationMs: duration.Milliseconds(),
		}
		if evalErr != nil {
			resp.Error = evalErr.Error()
			resp.Result = ""
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(resp)
	}
}

func runServe(cmd *cobra.Command, args []string) {
	port, _ := cmd.Flags().GetInt("port")
	timeout, _ := cmd.Flags().GetDuration("timeout")

	cfg, err := resolveSettings(cmd)
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

	mux := http.NewServeMux()
	mux.HandleFunc("/eval", evalHandler(be, timeout))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	addr := fmt.Sprintf(":%d", port)
	fmt.Fprintf(os.Stderr, "duktig server listening on %s\n", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
