package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fleet-console/internal/kinesis"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	kinesisService "github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/spf13/cobra"
)

var eventsStream string

// eventsCmd tails the fleet event stream
var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "Follow fleet events from Kinesis",
	Long: `Print fleet events (fleet_created, fleet_deleted, driver_dismissed,
drivers_invited, invite_accepted, invite_declined) as the fleet API
publishes them. Reads from the newest
record of every shard until interrupted.`,
	Args: cobra.NoArgs,
	RunE: runEvents,
}

func init() {
	eventsCmd.Flags().StringVar(&eventsStream, "stream", "", "Kinesis stream (or set KINESIS_FLEET_EVENTS_STREAM env)")
}

func runEvents(cmd *cobra.Command, args []string) error {
	stream := cfg.Events.Stream
	if eventsStream != "" {
		stream = eventsStream
	}
	if stream == "" {
		return errors.New("no event stream configured: set --stream or events.stream")
	}

	ctx := commandContext(cmd)
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Events.Region))
	if err != nil {
		return fmt.Errorf("failed to load AWS config: %w", err)
	}

	consumer := kinesis.NewConsumer(kinesisService.NewFromConfig(awsCfg), stream)
	return followEvents(ctx, consumer, cmd.OutOrStdout())
}

func followEvents(ctx context.Context, consumer *kinesis.Consumer, out io.Writer) error {
	err := consumer.Start(ctx, func(event kinesis.FleetEvent) {
		fmt.Fprintln(out, formatEvent(event))
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func formatEvent(event kinesis.FleetEvent) string {
	line := fmt.Sprintf("%s  %-16s fleet=%d",
		event.Timestamp.Local().Format(time.DateTime), event.EventType, event.FleetID)
	if len(event.DriverIDs) > 0 {
		ids := make([]string, len(event.DriverIDs))
		for i, id := range event.DriverIDs {
			ids[i] = fmt.Sprint(id)
		}
		line += " drivers=" + strings.Join(ids, ",")
	}
	return line
}
