package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/felixgeelhaar/crucible/internal/events"
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Tail progress events from RabbitMQ",
	Long:  "Consume topic.passed and badge.earned events from the progress queue and print them as JSON lines.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Events.URL == "" {
			return errors.New("no broker configured (set CRUCIBLE_AMQP_URL or amqp_url in secrets.yaml)")
		}
		workers, _ := cmd.Flags().GetInt("workers")

		conn, err := events.NewConnection(events.AMQPConfig{
			URL:      cfg.Events.URL,
			Exchange: cfg.Events.Exchange,
			Queue:    cfg.Events.Queue,
		})
		if err != nil {
			return err
		}
		defer conn.Close()

		enc := json.NewEncoder(cmd.OutOrStdout())
		out := make(chan events.Event)
		consumer := events.NewConsumer(conn, func(ctx context.Context, e events.Event) error {
			select {
			case out <- e:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		}, events.ConsumerConfig{Workers: workers})

		ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if err := consumer.Start(ctx); err != nil {
			return err
		}
		defer consumer.Stop()

		fmt.Fprintf(cmd.ErrOrStderr(), "Listening on %s (Ctrl+C to stop)\n", conn.Queue())
		for {
			select {
			case <-ctx.Done():
				return nil
			case e := <-out:
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
		}
	},
}

func init() {
	eventsCmd.Flags().Int("workers", 1, "Number of consumer workers")
	rootCmd.AddCommand(eventsCmd)
}
