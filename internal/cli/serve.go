package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/mvoltz/tether/internal/server"
)

// newServeCmd creates the serve command.
// It runs the snapshot HTTP service over the configured store and shuts
// down gracefully when the command context is cancelled.
func newServeCmd() *cobra.Command {
	var (
		configFile string
		listen     string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the snapshot HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := loggerFromContext(cmd.Context())

			cfg, err := loadConfig(configFile)
			if err != nil {
				return err
			}
			if listen != "" {
				cfg.Server.Listen = listen
			}

			store, err := openStore(cmd.Context(), cfg.Store)
			if err != nil {
				return err
			}
			defer store.Close()

			srv := &http.Server{
				Addr:              cfg.Server.Listen,
				Handler:           server.New(store, logger).Handler(),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("listening", "addr", cfg.Server.Listen, "backend", cfg.Store.Backend)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case err := <-errCh:
				return err
			case <-cmd.Context().Done():
			}

			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
			if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file (default: ~/.config/tether/config.toml)")
	cmd.Flags().StringVarP(&listen, "listen", "l", "", "listen address (overrides config)")
	return cmd
}
