// Package commands wires cobra subcommands to internal/engine's mode-selected entry point,
// the "interface the core exposes to its CLI collaborator" from spec section 6.
package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasm-rr/wasm-rr/internal/obslog"
)

var exitCode int

// LastExitCode returns the exit code set by the most recently executed subcommand: the
// guest's own exit code on a clean record/replay run, or 0 for convert.
func LastExitCode() int {
	return exitCode
}

// NewRootCommand builds the wasm-rr root command with its record, replay, and convert
// subcommands attached.
func NewRootCommand() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:           "wasm-rr",
		Short:         "Deterministic record/replay harness for WASI Preview 2 components",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")

	logger := func() *zap.Logger { return obslog.New(verbose) }
	ctx := func() context.Context { return context.Background() }

	root.AddCommand(
		newRecordCommand(ctx, logger),
		newReplayCommand(ctx, logger),
		newConvertCommand(),
	)
	return root
}
