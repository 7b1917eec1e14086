package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/wattline/contractor-erp/internal/core/events"
	"github.com/wattline/contractor-erp/pkg/logger"
	"github.com/spf13/cobra"
)

var eventCmd = &cobra.Command{
	Use:   "event",
	Short: "Event bus commands",
	Long:  `Inspect the payroll event bus: publish sample events and watch handler output`,
}

var publishEventCmd = &cobra.Command{
	Use:       "publish [event-type]",
	Short:     "Publish a sample payroll event",
	Long:      `Publish a sample event to the in-process bus to verify subscriber wiring`,
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{events.EventTypeBulkProcessed, events.EventTypePayrollExported},
	Run: func(cmd *cobra.Command, args []string) {
		publishSampleEvent(args[0])
	},
}

var eventData string

func publishSampleEvent(eventType string) {
	lg := logger.LoggerWrapper()

	eventBus := events.NewEventBus(lg)
	eventBus.Subscribe(eventType, func(ctx context.Context, event events.Event) error {
		lg.Info("sample handler received event",
			"event_id", event.EventID(),
			"event_type", event.EventType(),
			"payload", event.Payload())
		return nil
	})

	sample := events.BaseEvent{
		ID:        fmt.Sprintf("sample-%d", time.Now().Unix()),
		Type:      eventType,
		Timestamp: time.Now(),
		Data: map[string]interface{}{
			"message": eventData,
			"source":  "cli-command",
		},
	}

	lg.Info("publishing sample event", "event_type", eventType, "event_id", sample.ID)

	if err := eventBus.Publish(context.Background(), sample); err != nil {
		lg.Error("failed to publish event", "error", err)
		return
	}

	lg.Info("sample event published")
}

func init() {
	publishEventCmd.Flags().StringVar(&eventData, "data", "sample message", "Event data message")

	eventCmd.AddCommand(publishEventCmd)

	rootCmd.AddCommand(eventCmd)
}
