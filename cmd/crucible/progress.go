package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show XP, streak, badges and the current topic",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			state, err := a.Service.GetMasteryState(ctx)
			if err != nil {
				return err
			}
			total := len(a.Service.Catalog().Topics())

			fmt.Println("Mastery")
			fmt.Println("=======")
			fmt.Printf("Current topic: %s\n", valueOr(state.CurrentTopicID, "(curriculum complete)"))
			progress := 0.0
			if total > 0 {
				progress = float64(state.TotalPassed) / float64(total)
			}
			fmt.Printf("Certified:     %s %d/%d\n", renderProgressBar(progress, 20), state.TotalPassed, total)
			fmt.Printf("XP:            %d\n", state.XP)
			fmt.Printf("Streak:        %d day(s)\n", state.Streak)
			fmt.Printf("Storage:       %s\n", a.Config.Storage.Backend)

			if len(state.Badges) > 0 {
				fmt.Println("\nBadges")
				fmt.Println("------")
				for _, b := range state.Badges {
					fmt.Printf("🏅 %-24s %s\n", b.Title, b.EarnedAt.Format("2006-01-02"))
				}
			}
			return nil
		})
	},
}

var domainsCmd = &cobra.Command{
	Use:   "domains",
	Short: "Show mastery per domain",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			domains, err := a.Service.ComputeDomainMastery(ctx)
			if err != nil {
				return err
			}
			fmt.Println("Domain Mastery")
			fmt.Println("--------------")
			for _, d := range domains {
				fmt.Printf("%-20s %s %3d%% (%d/%d) avg %.1f\n",
					d.Domain, renderProgressBar(float64(d.Percent())/100, 20), d.Percent(),
					d.TopicsPassed, d.TopicsTotal, d.AverageBestScore)
				if len(d.TopWeaknesses) > 0 {
					fmt.Printf("%-20s weakest: %s\n", "", strings.Join(d.TopWeaknesses, ", "))
				}
			}
			return nil
		})
	},
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export mastery data as JSON or the portfolio as markdown",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		output, _ := cmd.Flags().GetString("output")

		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			var data []byte
			switch format {
			case "json":
				b, err := a.Service.ExportMasteryData(ctx)
				if err != nil {
					return err
				}
				data = append(b, '\n')
			case "markdown", "md":
				md, err := a.Service.ExportMarkdown(ctx)
				if err != nil {
					return err
				}
				data = []byte(md)
			default:
				return fmt.Errorf("unknown format: %s (valid: json, markdown)", format)
			}

			if output == "" || output == "-" {
				_, err := cmd.OutOrStdout().Write(data)
				return err
			}
			if err := os.WriteFile(output, data, 0644); err != nil {
				return fmt.Errorf("write export: %w", err)
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "✓ Exported to %s\n", output)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Discard all progress for the learner",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if yes, _ := cmd.Flags().GetBool("yes"); !yes && !confirm(cmd, "This discards all progress, XP and badges. Continue?") {
			fmt.Println("Aborted")
			return nil
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			if err := a.Service.Reset(ctx); err != nil {
				return err
			}
			fmt.Println("✓ Progress reset")
			return nil
		})
	},
}

func init() {
	exportCmd.Flags().String("format", "json", "Export format: json or markdown")
	exportCmd.Flags().StringP("output", "o", "", "Write to a file instead of stdout")
	resetCmd.Flags().BoolP("yes", "y", false, "Skip the confirmation prompt")
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Printf("%s [y/N] ", question)
	reader := bufio.NewReader(cmd.InOrStdin())
	answer, _ := reader.ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}

func valueOr(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

// renderProgressBar creates a visual progress bar
func renderProgressBar(value float64, width int) string {
	filled := int(value * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	empty := width - filled

	return "[" + strings.Repeat("█", filled) + strings.Repeat("░", empty) + "]"
}
