package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/graph"
)

// newEncodeCmd creates the encode command.
// It reads an authored JSON document and writes an identity-preserving
// snapshot in the chosen archive format.
func newEncodeCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "encode <document.json>",
		Short: "Encode a JSON document into a snapshot",
		Long: `Encode reads an authored JSON document and writes it as a snapshot.

Shared assets are written exactly once; every node that references an
asset serializes as a small alias record instead of a copy. Decoding the
snapshot reconstructs the exact aliasing structure.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			f, err := graph.ParseFormat(format)
			if err != nil {
				return err
			}

			doc, err := graph.ImportJSON(args[0])
			if err != nil {
				return err
			}
			logger.Debug("document loaded", "path", args[0])

			data, err := graph.Marshal(doc, f)
			if err != nil {
				return err
			}

			out := output
			if out == "" {
				out = strings.TrimSuffix(args[0], ".json") + "." + snapshotExt(f)
			}
			if err := os.WriteFile(out, data, 0o644); err != nil {
				return err
			}

			st := doc.Stats()
			prog.done("Encoded " + args[0])
			printFile(out)
			printStats(st.Assets, st.Nodes, st.Bound)
			printNextStep("Inspect it", appName+" inspect "+out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "binary", "snapshot format (binary, text)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: input with snapshot extension)")
	return cmd
}

// snapshotExt maps a format to its conventional file extension.
func snapshotExt(f graph.Format) string {
	if f == graph.FormatText {
		return "tetht"
	}
	return "teth"
}
