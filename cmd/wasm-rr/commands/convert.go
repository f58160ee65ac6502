package commands

import (
	"github.com/spf13/cobra"

	"github.com/wasm-rr/wasm-rr/internal/trace"
)

func newConvertCommand() *cobra.Command {
	var inFormatName, outFormatName string

	cmd := &cobra.Command{
		Use:   "convert <in> <out>",
		Short: "Convert a trace between the textual (.json) and binary (.cbor) wire formats",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			inPath, outPath := args[0], args[1]

			var inFormat, outFormat *trace.Format
			if inFormatName != "" {
				f, err := resolveFormat(inFormatName, inPath)
				if err != nil {
					return err
				}
				inFormat = &f
			}
			if outFormatName != "" {
				f, err := resolveFormat(outFormatName, outPath)
				if err != nil {
					return err
				}
				outFormat = &f
			}

			exitCode = 0
			return trace.Convert(inPath, outPath, inFormat, outFormat)
		},
	}

	cmd.Flags().StringVar(&inFormatName, "input-format", "", "input trace format: json or cbor (default: inferred from <in> extension)")
	cmd.Flags().StringVar(&outFormatName, "output-format", "", "output trace format: json or cbor (default: inferred from <out> extension)")
	return cmd
}
