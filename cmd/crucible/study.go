package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	"github.com/felixgeelhaar/crucible/internal/domain"
	"github.com/felixgeelhaar/crucible/internal/evaluation"
)

var startCmd = &cobra.Command{
	Use:   "start <topic-id>",
	Short: "Start an unlocked topic and make it current",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			state, err := a.Service.StartTopic(ctx, args[0])
			if err != nil {
				return err
			}
			topic, _ := a.Service.Catalog().Topic(state.CurrentTopicID)
			fmt.Printf("✓ Started %s\n", topic.Title)
			fmt.Printf("Run 'crucible show %s' to read the lessons.\n", topic.ID)
			return nil
		})
	},
}

var drillCmd = &cobra.Command{
	Use:   "drill <topic-id> <drill-id> [response...]",
	Short: "Submit a drill response",
	Long:  "Submit a drill response as arguments, from --file, or on stdin when neither is given.",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := readResponse(cmd, args[2:])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out, err := a.Service.SubmitDrill(ctx, args[0], args[1], response)
			if err != nil {
				return err
			}
			fmt.Printf("Score: %d/100\n", out.Result.Score)
			fmt.Println(out.Result.Feedback)
			printList("Missing elements", out.Result.MissingElements)
			printList("Unmet criteria", out.Result.UnmetCriteria)
			return nil
		})
	},
}

var challengeCmd = &cobra.Command{
	Use:   "challenge <topic-id> [response...]",
	Short: "Submit a challenge response for certification",
	Long:  "Submit a challenge response as arguments, from --file, or on stdin when neither is given.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := readResponse(cmd, args[1:])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			out, err := a.Service.SubmitChallenge(ctx, args[0], response)
			if err != nil {
				return err
			}
			printEvaluation(out.Result)

			if out.FirstPass {
				fmt.Printf("\n✓ Certified! Total XP: %d, streak: %d day(s)\n", out.State.XP, out.State.Streak)
				if out.State.CurrentTopicID != args[0] {
					fmt.Printf("Next topic: %s\n", out.State.CurrentTopicID)
				}
			}
			for _, b := range out.NewBadges {
				fmt.Printf("🏅 Badge earned: %s - %s\n", b.Title, b.Description)
			}
			return nil
		})
	},
}

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <topic-id> [response...]",
	Short: "Score a challenge response without recording it",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		response, err := readResponse(cmd, args[1:])
		if err != nil {
			return err
		}
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			topic, ok := a.Service.Catalog().Topic(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTopicNotFound, args[0])
			}
			printEvaluation(a.Service.EvaluateTopicChallenge(topic, response))
			return nil
		})
	},
}

func init() {
	for _, cmd := range []*cobra.Command{drillCmd, challengeCmd, evaluateCmd} {
		cmd.Flags().StringP("file", "f", "", "Read the response from a file")
	}
}

// readResponse takes the response from --file, trailing arguments or stdin,
// in that order
func readResponse(cmd *cobra.Command, rest []string) (string, error) {
	if path, _ := cmd.Flags().GetString("file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("read response: %w", err)
		}
		return string(data), nil
	}
	if len(rest) > 0 {
		return strings.Join(rest, " "), nil
	}

	info, err := os.Stdin.Stat()
	if err == nil && info.Mode()&os.ModeCharDevice != 0 {
		return "", errors.New("no response given (pass it as arguments, --file, or on stdin)")
	}
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return string(data), nil
}

func printEvaluation(r evaluation.EvaluationResult) {
	verdict := "✗ Not passed"
	if r.Passed {
		verdict = "✓ Passed"
	}
	fmt.Printf("%s: %d/100 (confidence %s)\n", verdict, r.Score, r.Confidence)

	if len(r.Breakdown) > 0 {
		fmt.Println("\nBreakdown")
		for _, b := range r.Breakdown {
			fmt.Printf("  %-20s %s %3d  %s\n", b.Dimension, renderProgressBar(float64(b.Score)/100, 20), b.Score, b.Feedback)
		}
	}
	printList("Missing sections", r.MissingSections)
	printList("Weaknesses", r.Weaknesses)
	printList("Suggested improvements", r.SuggestedImprovements)
}
