package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	"github.com/felixgeelhaar/crucible/internal/daemon"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API in the foreground",
	Long:  "Run the HTTP API in the foreground. Use crucibled for a daemon with a PID file and log file.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		port, _ := cmd.Flags().GetInt("port")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if port > 0 {
				a.Config.Daemon.Port = port
			}
			server, err := daemon.NewServer(daemon.ServerConfig{
				Config:  a.Config,
				Service: a.Service,
				Version: Version,
			})
			if err != nil {
				return fmt.Errorf("create server: %w", err)
			}

			done := make(chan struct{})
			go func() {
				sigCh := make(chan os.Signal, 1)
				signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
				sig := <-sigCh
				slog.Info("received signal, shutting down", "signal", sig.String())

				ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				if err := server.Shutdown(ctx); err != nil {
					slog.Error("shutdown error", "error", err)
				}
				close(done)
			}()

			fmt.Printf("Serving on http://%s:%d\n", a.Config.Daemon.Bind, a.Config.Daemon.Port)
			if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("server error: %w", err)
			}
			<-done
			return nil
		})
	},
}

func init() {
	serveCmd.Flags().IntP("port", "p", 0, "Port to listen on (overrides config)")
}
