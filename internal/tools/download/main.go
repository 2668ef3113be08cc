// download fetches the engine's wasm build for local development. Skips the
// fetch when the output already exists.
package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
)

const defaultEngineURL = "https://github.com/duktig-dev/duktape-wasm/releases/latest/download/duktape.wasm"

func main() {
	if len(os.Args) < 2 || len(os.Args) > 3 {
		fmt.Fprintln(os.Stderr, "usage: download <output> [url]")
		os.Exit(1)
	}

	output := os.Args[1]
	url := defaultEngineURL
	if len(os.Args) == 3 {
		url = os.Args[2]
	}

	if _, err := os.Stat(output); err == nil {
		return
	}

	resp, err := http.Get(url)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Fprintf(os.Stderr, "download failed: %s\n", resp.Status)
		os.Exit(1)
	}

	f, err := os.Create(output)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
