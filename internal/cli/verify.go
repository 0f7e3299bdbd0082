package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/graph"
)

// newVerifyCmd creates the verify command.
// It round-trips a document through the codec and reports whether the
// aliasing structure survived.
func newVerifyCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "verify <document.json>",
		Short: "Check that a document's shared identity survives encoding",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := graph.ParseFormat(format)
			if err != nil {
				return err
			}
			doc, err := graph.ImportJSON(args[0])
			if err != nil {
				return err
			}

			spin := newSpinner(cmd.Context(), "verifying round trip")
			spin.Start()
			report, err := graph.Verify(doc, f)
			if err != nil {
				spin.StopWithError("verification failed")
				return err
			}

			if report.IdentityPreserved {
				spin.StopWithSuccess(fmt.Sprintf("Identity preserved through %s round trip", f))
			} else {
				spin.StopWithError("Round trip broke shared identity")
			}
			printStats(report.Assets, report.Nodes, report.Bound)
			printKeyValue("snapshot", fmt.Sprintf("%d bytes", report.SnapshotBytes))

			if !report.IdentityPreserved {
				return fmt.Errorf("identity not preserved for format %s", f)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "binary", "snapshot format (binary, text)")
	return cmd
}
