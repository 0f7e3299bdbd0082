package cli

import (
	"fmt"
	"maps"
	"slices"

	"github.com/spf13/cobra"
)

// newInspectCmd creates the inspect command.
// It prints a snapshot's aliasing statistics without modifying anything.
func newInspectCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "inspect <snapshot>",
		Short: "Show a snapshot's aliasing statistics",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, f, err := readSnapshotFile(args[0], format)
			if err != nil {
				return err
			}

			st := doc.Stats()
			fmt.Println(StyleTitle.Render(titleOf(doc.Title)))
			printKeyValue("format", string(f))
			printKeyValue("assets", fmt.Sprintf("%d", st.Assets))
			printKeyValue("nodes", fmt.Sprintf("%d", st.Nodes))
			printKeyValue("bound", fmt.Sprintf("%d", st.Bound))
			printKeyValue("data bytes", fmt.Sprintf("%d", st.DataBytes))

			if len(st.FanIn) > 0 {
				fmt.Println()
				fmt.Println(StyleDim.Render("fan-in per asset:"))
				for _, name := range slices.Sorted(maps.Keys(st.FanIn)) {
					printKeyValue(name, fmt.Sprintf("%d", st.FanIn[name]))
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "", "snapshot format (binary, text; default: sniff)")
	return cmd
}

func titleOf(title string) string {
	if title == "" {
		return "(untitled)"
	}
	return title
}
