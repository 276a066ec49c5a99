// Command admin provides operator utilities for Chirp.
package main

import (
	"fmt"
	"os"

	"chirp/internal/admincli"
)

func main() {
	if err := admincli.NewRootCommand(admincli.DefaultRuntime()).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
