package kinesis

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/kinesis"
	"github.com/google/uuid"
)

// Event types published after fleet mutations
const (
	EventFleetCreated    = "fleet_created"
	EventFleetDeleted    = "fleet_deleted"
	EventDriverDismissed = "driver_dismissed"
	EventDriversInvited  = "drivers_invited"
	EventInviteAccepted  = "invite_accepted"
	EventInviteDeclined  = "invite_declined"
)

// PutRecordAPI is the part of the Kinesis client the streamer needs
type PutRecordAPI interface {
	PutRecord(ctx context.Context, params *kinesis.PutRecordInput, optFns ...func(*kinesis.Options)) (*kinesis.PutRecordOutput, error)
}

type Streamer struct {
	client     PutRecordAPI
	streamName string
}

type FleetEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	FleetID   int64     `json:"fleet_id"`
	DriverIDs []int64   `json:"driver_ids,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewStreamer(client PutRecordAPI, streamName string) *Streamer {
	return &Streamer{
		client:     client,
		streamName: streamName,
	}
}

// Publish writes the event to the stream, keyed by fleet id. Failures are
// logged, never returned: events are a side channel to the fleet API.
func (s *Streamer) Publish(ctx context.Context, event FleetEvent) {
	if s == nil || s.client == nil {
		return // Kinesis not enabled
	}

	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("Failed to marshal fleet event", "fleet_id", event.FleetID, "error", err)
		return
	}

	partitionKey := strconv.FormatInt(event.FleetID, 10)
	_, err = s.client.PutRecord(ctx, &kinesis.PutRecordInput{
		StreamName:   &s.streamName,
		Data:         data,
		PartitionKey: &partitionKey,
	})

	if err != nil {
		slog.Error("Failed to stream fleet event",
			"fleet_id", event.FleetID,
			"event_type", event.EventType,
			"error", err)
	} else {
		slog.Debug("Streamed fleet event", "fleet_id", event.FleetID, "event_type", event.EventType)
	}
}
