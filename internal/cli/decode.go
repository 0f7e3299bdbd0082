package cli

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/graph"
)

// newDecodeCmd creates the decode command.
// It turns a snapshot back into the editable JSON authoring format.
func newDecodeCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := &cobra.Command{
		Use:   "decode <snapshot>",
		Short: "Decode a snapshot back to authoring JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			doc, f, err := readSnapshotFile(args[0], format)
			if err != nil {
				return err
			}
			logger.Debug("snapshot decoded", "path", args[0], "format", f)

			if output == "" {
				return graph.WriteJSON(doc, os.Stdout)
			}
			if err := graph.ExportJSON(doc, output); err != nil {
				return err
			}
			printSuccess("Decoded %s", args[0])
			printFile(output)
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "snapshot format (binary, text; default: sniff)")
	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: stdout)")
	return cmd
}

// readSnapshotFile loads and decodes a snapshot file. An empty format
// means sniffing it from the file contents.
func readSnapshotFile(path, format string) (*graph.Doc, graph.Format, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", err
	}
	f := graph.SniffFormat(data)
	if format != "" {
		if f, err = graph.ParseFormat(format); err != nil {
			return nil, "", err
		}
	}
	doc, err := graph.Unmarshal(data, f)
	return doc, f, err
}
