// ABOUTME: CLI entry point for pi-hooks, the lifecycle hook runner
// ABOUTME: Builds the cobra command tree and maps errors to a nonzero exit

package main

import (
	"fmt"
	"os"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

func main() {
	root := newRootCmd(os.Stdin, os.Stdout, os.Stderr)
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
