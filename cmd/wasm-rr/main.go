// main.go — Entry point for the wasm-rr CLI binary.
//
// wasm-rr is the command-line collaborator spec section 6 describes as external to the core:
// a thin adapter from flags to internal/engine's mode-selected entry point. Subcommands: record,
// replay, convert.
//
// Exit codes:
//
//	the guest's own exit code on a clean run
//	1 on a harness-level error (bad flags, trace I/O failure, component link failure)
package main

import (
	"fmt"
	"os"

	"github.com/wasm-rr/wasm-rr/cmd/wasm-rr/commands"
)

func main() {
	root := commands.NewRootCommand()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	os.Exit(commands.LastExitCode())
}
