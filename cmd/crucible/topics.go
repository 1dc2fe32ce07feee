package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/app"
	"github.com/felixgeelhaar/crucible/internal/domain"
)

var topicsCmd = &cobra.Command{
	Use:   "topics",
	Short: "List curriculum topics with your progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			state, err := a.Service.GetMasteryState(ctx)
			if err != nil {
				return err
			}

			phase := 0
			for _, t := range a.Service.Catalog().Topics() {
				if t.Phase != phase {
					phase = t.Phase
					fmt.Printf("\nPhase %d\n", phase)
					fmt.Println(strings.Repeat("-", 8))
				}
				p := state.TopicProgress[t.ID]
				marker := " "
				if state.CurrentTopicID == t.ID {
					marker = "*"
				}
				fmt.Printf("%s %-4s %-24s %-28s %-12s best %d\n",
					marker, statusIcon(p.Status), t.ID, t.Title, t.Domain, p.BestScore)
			}
			return nil
		})
	},
}

var showCmd = &cobra.Command{
	Use:   "show <topic-id>",
	Short: "Show a topic's lessons, examples, drills and challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app.App) error {
			topic, ok := a.Service.Catalog().Topic(args[0])
			if !ok {
				return fmt.Errorf("%w: %s", domain.ErrTopicNotFound, args[0])
			}
			printTopic(topic)
			return nil
		})
	},
}

func printTopic(t domain.Topic) {
	fmt.Printf("%s (%s)\n", t.Title, t.ID)
	fmt.Printf("Phase %d | %s | %d XP | pass at %d\n", t.Phase, t.Domain, t.XP, t.PassThreshold)

	for _, l := range t.Lessons {
		fmt.Printf("\n## %s\n\n%s\n", l.Heading, strings.TrimSpace(l.Body))
	}
	for _, ex := range t.Examples {
		fmt.Printf("\n### Example: %s\n\nPrompt:\n%s\n\nSolution:\n%s\n", ex.Title, ex.Prompt, ex.Solution)
		if ex.Notes != "" {
			fmt.Printf("\nNotes: %s\n", ex.Notes)
		}
	}

	if len(t.Drills) > 0 {
		fmt.Println("\nDrills")
		fmt.Println("------")
		for _, d := range t.Drills {
			fmt.Printf("[%s] %s\n", d.ID, strings.TrimSpace(d.Prompt))
			if d.Hint != "" {
				fmt.Printf("    hint: %s\n", d.Hint)
			}
		}
	}

	c := t.Challenge
	fmt.Printf("\nChallenge [%s]\n", c.ID)
	fmt.Println(strings.TrimSpace(c.Scenario))
	printList("Constraints", c.Constraints)
	printList("Required sections", c.RequiredSections)

	fmt.Println("\nRubric")
	for _, cr := range t.Rubric.Criteria {
		fmt.Printf("  %-20s weight %.2f  %s\n", cr.Dimension, cr.Weight, cr.Description)
	}
}

func printList(title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s:\n", title)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func statusIcon(s domain.TopicStatus) string {
	switch s {
	case domain.StatusPassed:
		return "✓"
	case domain.StatusInProgress:
		return "…"
	case domain.StatusAvailable:
		return "○"
	default:
		return "🔒"
	}
}
