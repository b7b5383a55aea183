package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/existflow/ohm/internal/logger"
	"github.com/existflow/ohm/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over a local JSON API",
	Long: `Run the local HTTP API until interrupted.

Changes made through the API are saved locally and, when connected, pushed to
Google Drive. Edits made by other ohm commands are picked up automatically.

Examples:
  ohm serve
  ohm serve --port 9000 --connect`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort    int
	serveConnect bool
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config)")
	serveCmd.Flags().BoolVar(&serveConnect, "connect", false, "Connect to Google Drive on start")
}

func runServe(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("port") {
		cfg.Server.Port = servePort
		if err := cfg.Server.Validate(); err != nil {
			return fmt.Errorf("invalid port: %w", err)
		}
	}

	ctx := cmd.Context()
	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close(context.Background())

	var syncer server.Syncer
	if cfg.Drive.Enabled() {
		syncer = a.coord
	}
	srv := server.New(a.ctrl, syncer, server.WithAllowedOrigins(cfg.Server.AllowOrigins...))
	addr := cfg.Server.Address()

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.watchStore(gCtx, nil); err != nil {
			logger.Warn("Store watcher stopped", logger.Err(err))
		}
		return nil
	})

	if cfg.Drive.Enabled() {
		g.Go(func() error {
			a.net.Run(gCtx)
			return nil
		})
		g.Go(func() error {
			if a.initSync(gCtx) && serveConnect {
				a.coord.Connect(gCtx)
			}
			return nil
		})
	}

	g.Go(func() error {
		logger.Info("Starting HTTP server", logger.F("address", addr))
		out(cmd.OutOrStdout(), "⚡ ohm API listening on %s\n", addr)
		if err := srv.Start(addr); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", logger.Err(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server stopped with error", logger.Err(err))
		return err
	}
	logger.Info("Server stopped")
	return nil
}
