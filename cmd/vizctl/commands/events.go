package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/benvon/vizflow/internal/logger"
	"github.com/benvon/vizflow/internal/queue"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newEventsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Inspect task change events",
	}
	cmd.AddCommand(newEventsTailCmd())
	return cmd
}

func newEventsTailCmd() *cobra.Command {
	var (
		amqpURL string
		pattern string
		asJSON  bool
	)
	cmd := &cobra.Command{
		Use:   "tail",
		Short: "Stream task events from RabbitMQ",
		Long:  "Binds a temporary queue to the task exchange and prints events until interrupted.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if amqpURL == "" {
				return fmt.Errorf("--amqp-url or RABBITMQ_URL is required")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			broker, err := queue.NewRabbitMQBroker(amqpURL)
			if err != nil {
				return err
			}
			defer func() { _ = broker.Close() }()

			deliveries, errs, err := broker.Consume(ctx, pattern)
			if err != nil {
				return err
			}
			log, err := logger.New(logger.Options{Console: true})
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync(log) }()
			return tail(ctx, cmd, deliveries, errs, asJSON, log)
		},
	}
	cmd.Flags().StringVar(&amqpURL, "amqp-url", os.Getenv("RABBITMQ_URL"), "RabbitMQ URL")
	cmd.Flags().StringVar(&pattern, "pattern", queue.AllEvents, "Routing key pattern, e.g. task.moved")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw event JSON")
	return cmd
}

func tail(ctx context.Context, cmd *cobra.Command, deliveries <-chan *queue.Delivery, errs <-chan error, asJSON bool, log *zap.Logger) error {
	out := cmd.OutOrStdout()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if ok && err != nil {
				log.Warn("consume_error", zap.Error(err))
			}
			if !ok {
				errs = nil
			}
		case d, ok := <-deliveries:
			if !ok {
				return nil
			}
			if asJSON {
				data, _ := json.Marshal(d.Message)
				fmt.Fprintln(out, string(data))
			} else {
				fmt.Fprintln(out, formatEvent(d.Message))
			}
			if err := d.Ack(); err != nil {
				log.Warn("ack_failed", zap.String("task_id", d.Message.TaskID), zap.Error(err))
			}
		}
	}
}

func formatEvent(m *queue.Message) string {
	line := fmt.Sprintf("%s  %-13s %s", m.OccurredAt.Local().Format(time.TimeOnly), m.Type, m.TaskID)
	if m.Task != nil {
		line += fmt.Sprintf("  %q", m.Task.Title)
		if m.FromStatus != nil {
			line += fmt.Sprintf("  %s -> %s", *m.FromStatus, m.Task.Status)
		}
	}
	return line
}
