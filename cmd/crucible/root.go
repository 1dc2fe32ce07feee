package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	"github.com/felixgeelhaar/crucible/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Mastery-based curriculum for applied LLM engineering",
	Long: `Crucible - Mastery-based learning for applied LLM engineering

Topics unlock in order. Drills give feedback; each topic is certified by a
challenge scored against a weighted rubric. Passing earns XP, keeps your
streak and adds the response to your portfolio.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelWarn
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().String("storage", "", "Storage backend: local, sqlite, postgres or redis (overrides config)")
	rootCmd.PersistentFlags().String("curriculum", "", "Path to a curriculum directory (overrides config)")
	rootCmd.PersistentFlags().String("learner", "", "Learner ID (overrides config)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(topicsCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(challengeCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(domainsCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(snapshotsCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads the config file, secrets and environment, then applies
// command-line overrides
func loadConfig(cmd *cobra.Command) (*config.LocalConfig, error) {
	if _, err := config.EnsureDir(); err != nil {
		return nil, fmt.Errorf("setup crucible directory: %w", err)
	}
	cfg, err := config.LoadLocalConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if v, _ := cmd.Flags().GetString("storage"); v != "" {
		cfg.Storage.Backend = v
	}
	if v, _ := cmd.Flags().GetString("curriculum"); v != "" {
		cfg.Curriculum.Path = v
	}
	if v, _ := cmd.Flags().GetString("learner"); v != "" {
		cfg.Storage.LearnerID = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withApp wires the application for a single command and releases it after
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("close app", "error", err)
		}
	}()

	return fn(ctx, a)
}
