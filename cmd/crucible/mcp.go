package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	mcpserver "github.com/felixgeelhaar/crucible/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the MCP server on stdio (for editor integration)",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("http")
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			srv := mcpserver.NewServer(mcpserver.Config{
				Service: a.Service,
				Version: Version,
			})

			ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer cancel()

			if addr != "" {
				return srv.ServeHTTP(ctx, addr)
			}
			return srv.ServeStdio(ctx)
		})
	},
}

func init() {
	mcpCmd.Flags().String("http", "", "Serve over HTTP on this address instead of stdio")
}
