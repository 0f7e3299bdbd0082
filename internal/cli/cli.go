// Package cli implements the tether command-line interface.
//
// This package provides commands for encoding documents into identity
// preserving snapshots, decoding them back, inspecting and verifying
// aliasing structure, rendering diagrams, and managing the snapshot
// store. The CLI is built using cobra and supports verbose logging via
// the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - encode: Encode an authored JSON document into a snapshot
//   - decode: Decode a snapshot back to authoring JSON
//   - inspect: Show a snapshot's aliasing statistics
//   - verify: Round-trip a document and check identity preservation
//   - render: Generate an SVG or DOT diagram of a document
//   - store: Manage snapshots in the configured store backend
//   - serve: Run the snapshot HTTP service
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging. Loggers
// are passed through context.Context to allow structured progress
// tracking.
package cli

import (
	"context"
	"fmt"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/buildinfo"
)

// appName is the application name used for directories and display.
const appName = "tether"

// Execute runs the tether CLI and returns an error if any command fails.
// This is the main entry point for the CLI application.
//
// Logging:
//   - Default: info level (logs to stderr)
//   - With --verbose (-v): debug level
//
// The logger is attached to the context and accessible to all commands
// via loggerFromContext.
func Execute(ctx context.Context) error {
	var verbose bool

	root := &cobra.Command{
		Use:          appName,
		Short:        "Tether encodes object graphs without losing shared identity",
		Long:         `Tether is a toolkit for serializing object graphs whose parts alias each other. Documents are encoded into snapshots that write every shared value once and reconstruct the exact aliasing structure on load.`,
		Version:      buildinfo.Version,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if verbose {
				level = charmlog.DebugLevel
			}
			ctx := withLogger(cmd.Context(), newLogger(os.Stderr, level))
			cmd.SetContext(ctx)
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newEncodeCmd())
	root.AddCommand(newDecodeCmd())
	root.AddCommand(newInspectCmd())
	root.AddCommand(newVerifyCmd())
	root.AddCommand(newRenderCmd())
	root.AddCommand(newStoreCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newCompletionCmd())

	return root.ExecuteContext(ctx)
}

// dataDir returns the snapshot directory using the XDG standard
// (~/.local/share/tether/), honoring XDG_DATA_HOME.
func dataDir() (string, error) {
	if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
		return fmt.Sprintf("%s/%s", dataHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/.local/share/%s", home, appName), nil
}
