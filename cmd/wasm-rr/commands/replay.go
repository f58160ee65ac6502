package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasm-rr/wasm-rr/internal/engine"
)

func newReplayCommand(ctxFn func() context.Context, loggerFn func() *zap.Logger) *cobra.Command {
	var tracePath string
	var formatName string

	cmd := &cobra.Command{
		Use:   "replay <component.wasm> [trace]",
		Short: "Run a component against a previously recorded trace, with no real host I/O for intercepted interfaces",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			componentPath := args[0]

			// The trace path may come from the second positional argument (spec section 6's
			// CLI shape) or the -t/--trace flag; the flag wins if both are given. Guest
			// arguments are not taken from the CLI here: they are replayed from the trace's
			// own Arguments event, not re-supplied on re-run.
			path := tracePath
			if path == "" && len(args) > 1 {
				path = args[1]
			}
			if path == "" {
				path = "wasm-rr-trace.json"
			}
			format, err := resolveFormat(formatName, path)
			if err != nil {
				return err
			}

			result, err := engine.Run(ctxFn(), engine.Config{
				ComponentPath: componentPath,
				Mode:          engine.ModeReplay,
				TracePath:     path,
				Format:        format,
				Logger:        loggerFn(),
			})
			exitCode = result.ExitCode
			return err
		},
	}

	cmd.Flags().StringVarP(&tracePath, "trace", "t", "", "path to the trace to replay (default wasm-rr-trace.json)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "trace wire format: json or cbor (default: inferred from the trace path's extension)")
	return cmd
}
