package cli

import (
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/graph"
	"github.com/mvoltz/tether/pkg/render"
)

// renderOpts holds the command-line flags for the render command.
type renderOpts struct {
	output   string // output file path
	detailed bool   // include asset metadata in labels
	dotOnly  bool   // emit DOT source instead of SVG
	format   string // snapshot format override for snapshot inputs
}

// newRenderCmd creates the render command.
// The input can be either an authored JSON document or a snapshot; JSON
// files are detected by their extension.
func newRenderCmd() *cobra.Command {
	var opts renderOpts

	cmd := &cobra.Command{
		Use:   "render <document.json|snapshot>",
		Short: "Render a document's aliasing structure as a diagram",
		Long: `Render draws the document as a node-link diagram: nodes as boxes,
shared assets as ellipses, and each alias as an arrow. Output is SVG by
default; --dot emits the Graphviz source instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())
			prog := newProgress(logger)

			doc, err := loadDocument(args[0], opts.format)
			if err != nil {
				return err
			}

			dot := render.ToDOT(doc, render.Options{Detailed: opts.detailed})
			if opts.dotOnly {
				out := outputPath(opts.output, args[0], ".dot")
				if err := os.WriteFile(out, []byte(dot), 0o644); err != nil {
					return err
				}
				prog.done("Rendered DOT")
				printFile(out)
				return nil
			}

			svg, err := render.SVG(dot)
			if err != nil {
				return err
			}
			out := outputPath(opts.output, args[0], ".svg")
			if err := os.WriteFile(out, svg, 0o644); err != nil {
				return err
			}
			prog.done("Rendered SVG")
			printFile(out)
			return nil
		},
	}

	cmd.Flags().StringVarP(&opts.output, "output", "o", "", "output path (default: input with new extension)")
	cmd.Flags().BoolVarP(&opts.detailed, "detailed", "d", false, "include asset kind and size in labels")
	cmd.Flags().BoolVar(&opts.dotOnly, "dot", false, "emit Graphviz DOT source instead of SVG")
	cmd.Flags().StringVarP(&opts.format, "format", "f", "", "snapshot format for snapshot inputs (default: sniff)")
	return cmd
}

// loadDocument reads either an authored JSON file or a snapshot.
func loadDocument(path, format string) (*graph.Doc, error) {
	if strings.HasSuffix(path, ".json") {
		return graph.ImportJSON(path)
	}
	doc, _, err := readSnapshotFile(path, format)
	return doc, err
}

// outputPath derives the output file name when none was given.
func outputPath(output, input, ext string) string {
	if output != "" {
		return output
	}
	if i := strings.LastIndex(input, "."); i > 0 {
		return input[:i] + ext
	}
	return input + ext
}
