package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/pkg/graph"
	"github.com/mvoltz/tether/pkg/snapstore"
)

// newStoreCmd creates the store command with its subcommands.
// The backend is selected by the config file; --config overrides the
// default location.
func newStoreCmd() *cobra.Command {
	var configFile string

	cmd := &cobra.Command{
		Use:   "store",
		Short: "Manage snapshots in the configured store backend",
	}
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ~/.config/tether/config.toml)")

	cmd.AddCommand(newStorePutCmd(&configFile))
	cmd.AddCommand(newStoreGetCmd(&configFile))
	cmd.AddCommand(newStoreLsCmd(&configFile))
	cmd.AddCommand(newStoreRmCmd(&configFile))
	return cmd
}

// withStore opens the configured store, runs fn, and closes it.
func withStore(cmd *cobra.Command, configFile string, fn func(snapstore.Store) error) error {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg.Store)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newStorePutCmd(configFile *string) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "put <snapshot>",
		Short: "Store a snapshot file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return err
			}
			format := graph.SniffFormat(data)
			// Fail early on snapshots the store would hand back broken.
			if _, err := graph.Unmarshal(data, format); err != nil {
				return err
			}

			if name == "" {
				name = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			}
			snap, err := snapstore.New(name, string(format), data)
			if err != nil {
				return err
			}
			return withStore(cmd, *configFile, func(s snapstore.Store) error {
				if err := s.Put(cmd.Context(), snap); err != nil {
					return err
				}
				printSuccess("Stored %s", name)
				printKeyValue("id", snap.ID)
				printNextStep("Fetch it", fmt.Sprintf("%s store get %s", appName, snap.ID))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&name, "name", "n", "", "snapshot name (default: file name)")
	return cmd
}

func newStoreGetCmd(configFile *string) *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Fetch a snapshot by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *configFile, func(s snapstore.Store) error {
				snap, err := s.Get(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				out := output
				if out == "" {
					f, _ := graph.ParseFormat(snap.Format)
					out = snap.Name + "." + snapshotExt(f)
				}
				if err := os.WriteFile(out, snap.Data, 0o644); err != nil {
					return err
				}
				printSuccess("Fetched %s", snap.Name)
				printFile(out)
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "output path (default: name with snapshot extension)")
	return cmd
}

func newStoreLsCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "ls",
		Short: "List stored snapshots",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *configFile, func(s snapstore.Store) error {
				infos, err := s.List(cmd.Context())
				if err != nil {
					return err
				}
				if len(infos) == 0 {
					printInfo("Store is empty")
					return nil
				}
				for _, info := range infos {
					fmt.Println(StyleValue.Render(info.ID) + "  " +
						StyleDim.Render(fmt.Sprintf("%-20s %-6s %8d bytes  %s",
							info.Name, info.Format, info.Size,
							info.CreatedAt.Local().Format("2006-01-02 15:04"))))
				}
				return nil
			})
		},
	}
}

func newStoreRmCmd(configFile *string) *cobra.Command {
	return &cobra.Command{
		Use:   "rm <id>",
		Short: "Remove a snapshot by ID",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, *configFile, func(s snapstore.Store) error {
				if err := s.Delete(cmd.Context(), args[0]); err != nil {
					return err
				}
				printSuccess("Removed %s", args[0])
				return nil
			})
		},
	}
}
