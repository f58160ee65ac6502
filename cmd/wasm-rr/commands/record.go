package commands

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wasm-rr/wasm-rr/internal/engine"
	"github.com/wasm-rr/wasm-rr/internal/trace"
)

func newRecordCommand(ctxFn func() context.Context, loggerFn func() *zap.Logger) *cobra.Command {
	var tracePath string
	var formatName string

	cmd := &cobra.Command{
		Use:   "record <component.wasm> [-- args...]",
		Short: "Run a component, intercepting non-deterministic interfaces and logging a trace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			componentPath := args[0]
			guestArgs := args[1:]

			path := tracePath
			if path == "" {
				path = "wasm-rr-trace.json"
			}
			format, err := resolveFormat(formatName, path)
			if err != nil {
				return err
			}

			result, err := engine.Run(ctxFn(), engine.Config{
				ComponentPath: componentPath,
				Mode:          engine.ModeRecord,
				TracePath:     path,
				Format:        format,
				Args:          guestArgs,
				Logger:        loggerFn(),
			})
			exitCode = result.ExitCode
			return err
		},
	}

	cmd.Flags().StringVarP(&tracePath, "trace", "t", "", "path to write the recorded trace (default wasm-rr-trace.json)")
	cmd.Flags().StringVarP(&formatName, "format", "f", "", "trace wire format: json or cbor (default: inferred from --trace extension)")
	return cmd
}

func resolveFormat(name, path string) (trace.Format, error) {
	switch name {
	case "json":
		return trace.FormatTextual, nil
	case "cbor":
		return trace.FormatBinary, nil
	case "":
		if f, ok := trace.InferFormat(path); ok {
			return f, nil
		}
		return 0, &usageError{msg: "cannot infer trace format from \"" + path + "\"; pass --format json|cbor"}
	default:
		return 0, &usageError{msg: "unknown --format " + name + "; want json or cbor"}
	}
}

type usageError struct{ msg string }

func (e *usageError) Error() string { return e.msg }
