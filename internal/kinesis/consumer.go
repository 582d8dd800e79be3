package kinesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/aws/aws-sdk-go-v2/service/kinesis/types"
)

// ConsumerAPI is the part of the Kinesis client the consumer needs
type ConsumerAPI interface {
	DescribeStream(ctx context.Context, params *kinesis.DescribeStreamInput, optFns ...func(*kinesis.Options)) (*kinesis.DescribeStreamOutput, error)
	GetShardIterator(ctx context.Context, params *kinesis.GetShardIteratorInput, optFns ...func(*kinesis.Options)) (*kinesis.GetShardIteratorOutput, error)
	GetRecords(ctx context.Context, params *kinesis.GetRecordsInput, optFns ...func(*kinesis.Options)) (*kinesis.GetRecordsOutput, error)
}

// EventHandler receives each decoded fleet event
type EventHandler func(FleetEvent)

type Consumer struct {
	client       ConsumerAPI
	streamName   string
	pollInterval time.Duration
}

func NewConsumer(client ConsumerAPI, streamName string) *Consumer {
	return &Consumer{
		client:       client,
		streamName:   streamName,
		pollInterval: 1 * time.Second,
	}
}

// Start reads every shard from LATEST and blocks until ctx is done or all
// shards are closed.
func (c *Consumer) Start(ctx context.Context, handler EventHandler) error {
	slog.Info("Starting Kinesis consumer", "stream", c.streamName)

	// Get stream description to find shards
	describeOutput, err := c.client.DescribeStream(ctx, &kinesis.DescribeStreamInput{
		StreamName: &c.streamName,
	})
	if err != nil {
		return fmt.Errorf("failed to describe stream %s: %w", c.streamName, err)
	}

	var wg sync.WaitGroup
	for _, shard := range describeOutput.StreamDescription.Shards {
		wg.Add(1)
		go func(shardID string) {
			defer wg.Done()
			c.processShard(ctx, shardID, handler)
		}(*shard.ShardId)
	}

	wg.Wait()
	return nil
}

func (c *Consumer) processShard(ctx context.Context, shardID string, handler EventHandler) {
	slog.Info("Processing shard", "shard_id", shardID)

	iteratorOutput, err := c.client.GetShardIterator(ctx, &kinesis.GetShardIteratorInput{
		StreamName:        &c.streamName,
		ShardId:           &shardID,
		ShardIteratorType: types.ShardIteratorTypeLatest,
	})
	if err != nil {
		slog.Error("Failed to get shard iterator", "error", err, "shard_id", shardID)
		return
	}

	shardIterator := iteratorOutput.ShardIterator

	for {
		if shardIterator == nil {
			slog.Info("Shard closed, stopping", "shard_id", shardID)
			return
		}

		recordsOutput, err := c.client.GetRecords(ctx, &kinesis.GetRecordsInput{
			ShardIterator: shardIterator,
		})
		if err != nil {
			slog.Error("Failed to get records", "error", err, "shard_id", shardID)
		} else {
			for _, record := range recordsOutput.Records {
				c.processRecord(record, handler)
			}
			shardIterator = recordsOutput.NextShardIterator
		}

		select {
		case <-ctx.Done():
			slog.Info("Stopping shard processing", "shard_id", shardID)
			return
		case <-time.After(c.pollInterval):
		}
	}
}

func (c *Consumer) processRecord(record types.Record, handler EventHandler) {
	var event FleetEvent
	if err := json.Unmarshal(record.Data, &event); err != nil {
		slog.Error("Failed to unmarshal fleet event record", "error", err)
		return
	}

	slog.Debug("Received fleet event",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"fleet_id", event.FleetID)

	handler(event)
}
